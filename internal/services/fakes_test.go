package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"chowvest/internal/events"
	"chowvest/internal/hooks"
	"chowvest/internal/ledger"
	"chowvest/internal/payment"

	"gorm.io/gorm"
)

// fakeGateway is a payment.Gateway driven by function fields.
type fakeGateway struct {
	initFn   func(ctx context.Context, req payment.InitializeRequest) (*payment.InitializeResult, error)
	verifyFn func(ctx context.Context, reference string) (*payment.Verification, error)

	mu          sync.Mutex
	initCalls   []payment.InitializeRequest
	verifyCalls atomic.Int32
}

func (g *fakeGateway) InitializePayment(ctx context.Context, req payment.InitializeRequest) (*payment.InitializeResult, error) {
	g.mu.Lock()
	g.initCalls = append(g.initCalls, req)
	g.mu.Unlock()
	if g.initFn != nil {
		return g.initFn(ctx, req)
	}
	return &payment.InitializeResult{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "access",
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) VerifyPayment(ctx context.Context, reference string) (*payment.Verification, error) {
	g.verifyCalls.Add(1)
	if g.verifyFn != nil {
		return g.verifyFn(ctx, reference)
	}
	return nil, errors.New("verify not configured")
}

func (g *fakeGateway) lastInit(t *testing.T) payment.InitializeRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.initCalls) == 0 {
		t.Fatal("expected InitializePayment to be called")
	}
	return g.initCalls[len(g.initCalls)-1]
}

// succeeded answers every verification as paid with the given kobo amounts.
func succeeded(amountMinor, feeMinor int64) func(context.Context, string) (*payment.Verification, error) {
	return func(_ context.Context, reference string) (*payment.Verification, error) {
		return &payment.Verification{
			Succeeded:   true,
			Status:      "success",
			Reference:   reference,
			AmountMinor: amountMinor,
			FeeMinor:    feeMinor,
			Raw:         []byte(`{"status":"success"}`),
		}, nil
	}
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) count(typ string) int {
	n := 0
	for _, got := range p.types() {
		if got == typ {
			n++
		}
	}
	return n
}

// harness wires every service over one test database with inline hooks.
type harness struct {
	db        *gorm.DB
	store     *ledger.Store
	gateway   *fakeGateway
	publisher *recordingPublisher
	audit     AuditServicer
	notifier  NotificationServicer
	wallets   WalletServicer
	baskets   BasketServicer
	transfers TransferServicer
	deposits  DepositServicer
}

func newHarness(db *gorm.DB) *harness {
	h := &harness{
		db:        db,
		store:     ledger.New(db),
		gateway:   &fakeGateway{},
		publisher: &recordingPublisher{},
	}
	runner := hooks.Inline{}
	h.audit = NewAuditService(db)
	h.notifier = NewNotificationService(db, h.publisher)
	h.wallets = NewWalletService(h.store)
	h.baskets = NewBasketService(h.store, h.audit, h.notifier, h.publisher, runner)
	h.transfers = NewTransferService(h.store, h.audit, h.notifier, h.publisher, runner)
	h.deposits = NewDepositService(h.store, h.gateway, h.audit, h.notifier, h.publisher, runner, DepositOptions{
		CallbackURL: "https://app.test/wallet",
	})
	return h
}
