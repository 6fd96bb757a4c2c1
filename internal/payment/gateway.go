// Package payment talks to the card/bank payment processor. Amounts cross this
// boundary in integer minor units (kobo); callers convert to money.Money.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sony/gobreaker"
)

// Gateway is the processor contract the deposit flow depends on.
type Gateway interface {
	InitializePayment(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	VerifyPayment(ctx context.Context, reference string) (*Verification, error)
}

// InitializeRequest asks the processor to open a checkout for reference.
type InitializeRequest struct {
	PayerEmail  string
	AmountMinor int64
	Reference   string
	CallbackURL string
	Metadata    map[string]any
	Channels    []string
}

// InitializeResult is where the payer should be redirected.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification is the processor's view of a charge.
type Verification struct {
	Succeeded   bool
	Status      string
	Reference   string
	AmountMinor int64
	FeeMinor    int64
	Channel     string
	PaidAt      *time.Time
	Raw         json.RawMessage
}

// Charge statuses that end a payment attempt without collecting money.
var terminalFailures = map[string]bool{
	"failed":    true,
	"abandoned": true,
	"reversed":  true,
}

// Failed reports whether the last attempt ended unsuccessfully, as opposed to
// still being in flight. The customer may still pay on the same checkout.
func (v *Verification) Failed() bool {
	return !v.Succeeded && terminalFailures[v.Status]
}

// RemoteError is a non-success answer from the processor.
type RemoteError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: processor returned %d: %s", e.Operation, e.StatusCode, e.Message)
}

// IsTimeout reports whether err came from a deadline rather than an answer.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsCircuitOpen reports whether the call was short-circuited by the breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
