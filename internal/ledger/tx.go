package ledger

import (
	apperrors "chowvest/internal/errors"
	"chowvest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tx is the view of the ledger inside a RunAtomic unit. Lock* methods take
// row locks that are held until the unit commits or rolls back.
type Tx struct {
	db *gorm.DB
}

func (t *Tx) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockWallet locks and returns the wallet with the given ID.
func (t *Tx) LockWallet(walletID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := t.forUpdate().Where("id = ?", walletID).First(&wallet).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

// LockWalletByUser locks and returns the wallet owned by userID.
func (t *Tx) LockWalletByUser(userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := t.forUpdate().Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrWalletNotFound)
	}
	return &wallet, nil
}

// LockBasket locks and returns basketID if userID owns it.
func (t *Tx) LockBasket(userID, basketID string) (*models.Basket, error) {
	var basket models.Basket
	if err := t.forUpdate().Where("id = ? AND user_id = ?", basketID, userID).First(&basket).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrBasketNotFound)
	}
	return &basket, nil
}

// LockTransactionByReference locks and returns the transaction carrying the
// gateway reference.
func (t *Tx) LockTransactionByReference(reference string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := t.forUpdate().Where("external_reference = ?", reference).First(&txn).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrTransactionNotFound)
	}
	return &txn, nil
}

// SaveWallet writes every column of wallet. A negative balance is refused
// here as well as by the table's check constraint.
func (t *Tx) SaveWallet(wallet *models.Wallet) error {
	if wallet.Balance.IsNegative() {
		return apperrors.ErrInsufficientFunds
	}
	return classify(t.db.Omit(clause.Associations).Save(wallet).Error)
}

// SaveBasket writes every column of basket.
func (t *Tx) SaveBasket(basket *models.Basket) error {
	return classify(t.db.Omit(clause.Associations).Save(basket).Error)
}

// CreateTransaction appends a ledger entry.
func (t *Tx) CreateTransaction(txn *models.Transaction) error {
	return classify(t.db.Omit(clause.Associations).Create(txn).Error)
}

// SaveTransaction writes every column of txn.
func (t *Tx) SaveTransaction(txn *models.Transaction) error {
	return classify(t.db.Omit(clause.Associations).Save(txn).Error)
}

// DeletePendingTransaction removes a deposit that never reached the gateway.
// Only PENDING rows can be removed; anything else is ledger history.
func (t *Tx) DeletePendingTransaction(id string) error {
	res := t.db.Where("id = ? AND status = ?", id, models.TransactionStatusPending).Delete(&models.Transaction{})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidState, "Only pending transactions can be removed")
	}
	return nil
}
