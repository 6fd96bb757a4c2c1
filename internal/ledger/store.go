// Package ledger is the durable record of wallets, baskets and transactions and
// the single source of truth for balances. Every money-moving change runs
// inside RunAtomic, which locks the rows it touches with SELECT ... FOR UPDATE
// so concurrent requests against the same wallet serialise instead of losing
// updates.
package ledger

import (
	"context"
	"database/sql"
	"errors"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/logger"
	"chowvest/internal/metrics"
	"chowvest/internal/models"
	"chowvest/internal/pagination"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultMaxRetries = 3

// Store wraps the ledger tables.
type Store struct {
	db         *gorm.DB
	isolation  sql.IsolationLevel
	maxRetries int
	log        *zap.SugaredLogger
}

// Option configures a Store.
type Option func(*Store)

// WithIsolation sets the isolation level used by RunAtomic.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(s *Store) { s.isolation = level }
}

// WithMaxRetries bounds how often RunAtomic re-runs a unit that lost a
// serialization race.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// New creates a Store over db.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:         db,
		isolation:  sql.LevelDefault,
		maxRetries: defaultMaxRetries,
		log:        logger.Named("ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the handle for read-only reporting queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// RunAtomic executes fn in one database transaction. Everything fn writes
// commits together or not at all. A unit that fails with a serialization or
// deadlock error is re-run up to the configured retry count, so fn must derive
// all of its writes from what it reads through tx.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx *Tx) error) error {
	var opts []*sql.TxOptions
	if s.isolation != sql.LevelDefault {
		opts = append(opts, &sql.TxOptions{Isolation: s.isolation})
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
			return fn(&Tx{db: gtx})
		}, opts...)
		if err == nil || !retryable(err) || attempt >= s.maxRetries || ctx.Err() != nil {
			break
		}
		metrics.LedgerRetries.Inc()
		s.log.Warnw("Retrying ledger unit after conflict", "attempt", attempt+1, "error", err)
	}
	if retryable(err) {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
	}
	return classify(err)
}

// GetWallet returns the wallet owned by userID.
func (s *Store) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

// GetOrCreateWallet returns the user's wallet, creating an empty one on first
// access. Two racing creators are resolved by the unique index on user_id: the
// loser's insert fails and it reads the winner's row instead.
func (s *Store) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, apperrors.ErrWalletNotFound) {
		return nil, err
	}

	wallet = models.NewWallet(userID)
	createErr := s.db.WithContext(ctx).Create(wallet).Error
	if createErr == nil {
		s.log.Infow("Wallet created", "user_id", userID, "wallet_id", wallet.ID)
		return wallet, nil
	}

	existing, err := s.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		return nil, classify(createErr)
	}
	return existing, nil
}

// GetBasket returns basketID if it belongs to userID.
func (s *Store) GetBasket(ctx context.Context, userID, basketID string) (*models.Basket, error) {
	var basket models.Basket
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", basketID, userID).First(&basket).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrBasketNotFound)
	}
	return &basket, nil
}

// BasketFilter narrows ListBaskets.
type BasketFilter struct {
	Status           *models.BasketStatus
	IncludeCancelled bool
}

// ListBaskets returns one page of the user's baskets, newest first.
func (s *Store) ListBaskets(ctx context.Context, userID string, filter BasketFilter, page pagination.PageRequest) ([]models.Basket, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Basket{}).Where("user_id = ?", userID)
	switch {
	case filter.Status != nil:
		query = query.Where("status = ?", *filter.Status)
	case !filter.IncludeCancelled:
		query = query.Where("status <> ?", models.BasketStatusCancelled)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var baskets []models.Basket
	if err := query.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&baskets).Error; err != nil {
		return nil, 0, classify(err)
	}
	return baskets, total, nil
}

// CreateBasket inserts a new basket.
func (s *Store) CreateBasket(ctx context.Context, basket *models.Basket) error {
	return classify(s.db.WithContext(ctx).Create(basket).Error)
}

// FindTransactionByReference looks a transaction up by its gateway reference.
func (s *Store) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).Where("external_reference = ?", reference).First(&txn).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrTransactionNotFound)
	}
	return &txn, nil
}

// GetTransaction returns transactionID if it belongs to userID.
func (s *Store) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Basket").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&txn).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrTransactionNotFound)
	}
	return &txn, nil
}

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	Type     *models.TransactionType
	Status   *models.TransactionStatus
	BasketID *string
}

// ListTransactions returns one page of a wallet's history, newest first.
func (s *Store) ListTransactions(ctx context.Context, walletID string, filter TransactionFilter, page pagination.PageRequest) ([]models.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("wallet_id = ?", walletID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BasketID != nil {
		query = query.Where("basket_id = ?", *filter.BasketID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var txns []models.Transaction
	err := query.Scopes(pagination.Paginate(page)).
		Preload("Basket").
		Order("created_at DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return txns, total, nil
}

// RecentTransactions returns the wallet's latest limit entries.
func (s *Store) RecentTransactions(ctx context.Context, walletID string, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Basket").
		Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, classify(err)
	}
	return txns, nil
}
