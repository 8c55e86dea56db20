// Package ledger owns every write to a user's points balance. Each change is a single
// conditional UPDATE plus a journal row, and must run inside the caller's transaction.
package ledger

import (
	"fmt"

	"rewear/internal/apperrors"
	"rewear/internal/domain"

	"gorm.io/gorm"
)

// Fee is the fixed amount credited for an approved listing and moved on every completed swap.
const Fee = 10

// Entry describes why a balance changes.
type Entry struct {
	Reason domain.PointsReason
	ItemID string
	SwapID string
}

// Credit adds amount to the user's balance.
func Credit(tx *gorm.DB, userID string, amount int, e Entry) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", apperrors.ErrValidation)
	}

	res := tx.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("%w: crediting user %s: %v", apperrors.ErrTransaction, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
	}

	return record(tx, userID, amount, e)
}

// Debit subtracts amount from the user's balance. The balance check and the decrement are one
// statement, so a concurrent debit can never drive the balance below zero.
func Debit(tx *gorm.DB, userID string, amount int, e Entry) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", apperrors.ErrValidation)
	}

	res := tx.Model(&domain.User{}).
		Where("id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("%w: debiting user %s: %v", apperrors.ErrTransaction, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: looking up user %s: %v", apperrors.ErrTransaction, userID, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
		}
		return fmt.Errorf("%w: %d points required", apperrors.ErrInsufficientFunds, amount)
	}

	return record(tx, userID, -amount, e)
}

// History returns the user's journal, newest first.
func History(tx *gorm.DB, userID string, limit int) ([]domain.PointsTransaction, error) {
	var entries []domain.PointsTransaction
	q := tx.Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("reading points history of %s: %w", userID, err)
	}
	return entries, nil
}

func record(tx *gorm.DB, userID string, amount int, e Entry) error {
	t := domain.PointsTransaction{
		UserID: userID,
		Amount: amount,
		Reason: e.Reason,
	}
	if e.ItemID != "" {
		t.ItemID = &e.ItemID
	}
	if e.SwapID != "" {
		t.SwapID = &e.SwapID
	}
	if err := tx.Create(&t).Error; err != nil {
		return fmt.Errorf("%w: recording points entry for %s: %v", apperrors.ErrTransaction, userID, err)
	}
	return nil
}
