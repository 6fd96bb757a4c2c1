package services

import (
	"context"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/ledger"
	"chowvest/internal/models"
	"chowvest/internal/pagination"
)

const recentTransactionsLimit = 20

// walletService serves wallet balances and history.
type walletService struct {
	store *ledger.Store
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(store *ledger.Store) WalletServicer {
	return &walletService{store: store}
}

// GetWallet returns the user's wallet, creating it on first access, with its
// most recent transactions.
func (s *walletService) GetWallet(ctx context.Context, userID string) (*WalletOverview, error) {
	wallet, err := s.store.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.RecentTransactions(ctx, wallet.ID, recentTransactionsLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.Transaction{}
	}
	return &WalletOverview{Wallet: wallet, RecentTransactions: recent}, nil
}

// GetWalletTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *walletService) GetWalletTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	wallet, err := s.store.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	txns, total, err := s.store.ListTransactions(ctx, wallet.ID, filter, page)
	if err != nil {
		return nil, err
	}
	result := pagination.NewPageResponse(txns, page.Page, page.PageSize, total)
	return &result, nil
}

// GetTransactionByID retrieves one of the user's transactions.
func (s *walletService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, transactionID)
}

// GetTransactionByReference retrieves the user's transaction carrying the
// gateway reference. Another user's reference reads as not found.
func (s *walletService) GetTransactionByReference(ctx context.Context, userID, reference string) (*models.Transaction, error) {
	txn, err := s.store.FindTransactionByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, apperrors.ErrTransactionNotFound
	}
	return txn, nil
}
