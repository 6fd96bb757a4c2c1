package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"chowvest/internal/ledger"
	"chowvest/internal/middleware"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/pagination"
	"chowvest/internal/ratelimit"
	"chowvest/internal/services"
	"chowvest/internal/validator"
)

const (
	testUserID        = "0192a4b1-7c3e-7d1a-9f00-000000000001"
	testBasketID      = "0192a4b1-7c3e-7d1a-9f00-0000000000b1"
	otherBasketID     = "0192a4b1-7c3e-7d1a-9f00-0000000000b9"
	testTransactionID = "0192a4b1-7c3e-7d1a-9f00-0000000000c1"
)

// --- mock services ---

type mockWalletService struct {
	getWalletFn                 func(ctx context.Context, userID string) (*services.WalletOverview, error)
	getWalletTransactionsFn     func(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn        func(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	getTransactionByReferenceFn func(ctx context.Context, userID, reference string) (*models.Transaction, error)
}

func (m *mockWalletService) GetWallet(ctx context.Context, userID string) (*services.WalletOverview, error) {
	if m.getWalletFn != nil {
		return m.getWalletFn(ctx, userID)
	}
	return &services.WalletOverview{Wallet: models.NewWallet(userID), RecentTransactions: []models.Transaction{}}, nil
}

func (m *mockWalletService) GetWalletTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getWalletTransactionsFn != nil {
		return m.getWalletTransactionsFn(ctx, userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockWalletService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(ctx, userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockWalletService) GetTransactionByReference(ctx context.Context, userID, reference string) (*models.Transaction, error) {
	if m.getTransactionByReferenceFn != nil {
		return m.getTransactionByReferenceFn(ctx, userID, reference)
	}
	return &models.Transaction{}, nil
}

type mockDepositService struct {
	initiateDepositFn func(ctx context.Context, in services.InitiateDepositInput) (*services.DepositInitiation, error)
	confirmDepositFn  func(ctx context.Context, reference string) (*services.DepositConfirmation, error)
}

func (m *mockDepositService) InitiateDeposit(ctx context.Context, in services.InitiateDepositInput) (*services.DepositInitiation, error) {
	if m.initiateDepositFn != nil {
		return m.initiateDepositFn(ctx, in)
	}
	return &services.DepositInitiation{}, nil
}

func (m *mockDepositService) ConfirmDeposit(ctx context.Context, reference string) (*services.DepositConfirmation, error) {
	if m.confirmDepositFn != nil {
		return m.confirmDepositFn(ctx, reference)
	}
	return &services.DepositConfirmation{}, nil
}

type mockBasketService struct {
	createBasketFn    func(ctx context.Context, userID string, in services.CreateBasketInput) (*models.Basket, error)
	getUserBasketsFn  func(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.BasketFilter) (*services.BasketList, error)
	getBasketByIDFn   func(ctx context.Context, userID, basketID string) (*models.Basket, error)
	setBasketStatusFn func(ctx context.Context, userID, basketID string, status models.BasketStatus) (*models.Basket, error)
	cancelBasketFn    func(ctx context.Context, userID, basketID string) (*models.Basket, error)
	requestDeliveryFn func(ctx context.Context, userID, basketID string) (*models.Basket, error)
}

func (m *mockBasketService) CreateBasket(ctx context.Context, userID string, in services.CreateBasketInput) (*models.Basket, error) {
	if m.createBasketFn != nil {
		return m.createBasketFn(ctx, userID, in)
	}
	return &models.Basket{}, nil
}

func (m *mockBasketService) GetUserBaskets(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.BasketFilter) (*services.BasketList, error) {
	if m.getUserBasketsFn != nil {
		return m.getUserBasketsFn(ctx, userID, page, filter)
	}
	return &services.BasketList{PageResponse: pagination.NewPageResponse([]models.Basket{}, 1, 20, 0)}, nil
}

func (m *mockBasketService) GetBasketByID(ctx context.Context, userID, basketID string) (*models.Basket, error) {
	if m.getBasketByIDFn != nil {
		return m.getBasketByIDFn(ctx, userID, basketID)
	}
	return &models.Basket{}, nil
}

func (m *mockBasketService) SetBasketStatus(ctx context.Context, userID, basketID string, status models.BasketStatus) (*models.Basket, error) {
	if m.setBasketStatusFn != nil {
		return m.setBasketStatusFn(ctx, userID, basketID, status)
	}
	return &models.Basket{Status: status}, nil
}

func (m *mockBasketService) CancelBasket(ctx context.Context, userID, basketID string) (*models.Basket, error) {
	if m.cancelBasketFn != nil {
		return m.cancelBasketFn(ctx, userID, basketID)
	}
	return &models.Basket{Status: models.BasketStatusCancelled}, nil
}

func (m *mockBasketService) RequestDelivery(ctx context.Context, userID, basketID string) (*models.Basket, error) {
	if m.requestDeliveryFn != nil {
		return m.requestDeliveryFn(ctx, userID, basketID)
	}
	return &models.Basket{}, nil
}

type mockTransferService struct {
	transferToBasketFn func(ctx context.Context, userID, basketID string, amount money.Money) (*services.TransferResult, error)
}

func (m *mockTransferService) TransferToBasket(ctx context.Context, userID, basketID string, amount money.Money) (*services.TransferResult, error) {
	if m.transferToBasketFn != nil {
		return m.transferToBasketFn(ctx, userID, basketID, amount)
	}
	return &services.TransferResult{Milestones: []int{}}, nil
}

type mockNotificationService struct {
	notifyFn               func(ctx context.Context, in services.NotificationInput) error
	getUserNotificationsFn func(ctx context.Context, userID string, page pagination.PageRequest, unreadOnly bool) (*services.NotificationList, error)
	markAsReadFn           func(ctx context.Context, userID string, ids []string, all bool) (int64, error)
}

func (m *mockNotificationService) Notify(ctx context.Context, in services.NotificationInput) error {
	if m.notifyFn != nil {
		return m.notifyFn(ctx, in)
	}
	return nil
}

func (m *mockNotificationService) GetUserNotifications(ctx context.Context, userID string, page pagination.PageRequest, unreadOnly bool) (*services.NotificationList, error) {
	if m.getUserNotificationsFn != nil {
		return m.getUserNotificationsFn(ctx, userID, page, unreadOnly)
	}
	return &services.NotificationList{PageResponse: pagination.NewPageResponse([]models.Notification{}, 1, 20, 0)}, nil
}

func (m *mockNotificationService) MarkAsRead(ctx context.Context, userID string, ids []string, all bool) (int64, error) {
	if m.markAsReadFn != nil {
		return m.markAsReadFn(ctx, userID, ids, all)
	}
	return 0, nil
}

type mockPaymentMethodService struct {
	listPaymentMethodsFn  func(ctx context.Context, userID string) ([]models.SavedPaymentMethod, error)
	addPaymentMethodFn    func(ctx context.Context, userID string, in services.AddPaymentMethodInput) (*models.SavedPaymentMethod, error)
	removePaymentMethodFn func(ctx context.Context, userID, methodID string) error
}

func (m *mockPaymentMethodService) ListPaymentMethods(ctx context.Context, userID string) ([]models.SavedPaymentMethod, error) {
	if m.listPaymentMethodsFn != nil {
		return m.listPaymentMethodsFn(ctx, userID)
	}
	return []models.SavedPaymentMethod{}, nil
}

func (m *mockPaymentMethodService) AddPaymentMethod(ctx context.Context, userID string, in services.AddPaymentMethodInput) (*models.SavedPaymentMethod, error) {
	if m.addPaymentMethodFn != nil {
		return m.addPaymentMethodFn(ctx, userID, in)
	}
	return &models.SavedPaymentMethod{UserID: userID, Type: in.Type, Provider: in.Provider}, nil
}

func (m *mockPaymentMethodService) RemovePaymentMethod(ctx context.Context, userID, methodID string) error {
	if m.removePaymentMethodFn != nil {
		return m.removePaymentMethodFn(ctx, userID, methodID)
	}
	return nil
}

type mockLimiter struct {
	checkFn func(ctx context.Context, rule ratelimit.Rule) (bool, error)
	rules   []ratelimit.Rule
}

func (m *mockLimiter) CheckAndConsume(ctx context.Context, rule ratelimit.Rule) (bool, error) {
	m.rules = append(m.rules, rule)
	if m.checkFn != nil {
		return m.checkFn(ctx, rule)
	}
	return false, nil
}

// verify interface compliance
var (
	_ services.WalletServicer        = (*mockWalletService)(nil)
	_ services.DepositServicer       = (*mockDepositService)(nil)
	_ services.BasketServicer        = (*mockBasketService)(nil)
	_ services.TransferServicer      = (*mockTransferService)(nil)
	_ services.NotificationServicer  = (*mockNotificationService)(nil)
	_ services.PaymentMethodServicer = (*mockPaymentMethodService)(nil)
	_ ratelimit.Limiter              = (*mockLimiter)(nil)
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Set(middleware.EmailKey, "ada@example.com")
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
