// Package exchange implements the item and swap state machines and the orchestrator that moves
// ownership and points between users. Every operation takes the acting Caller explicitly and runs
// its reads and writes in a single database transaction.
package exchange

import (
	"context"
	"errors"
	"fmt"

	"rewear/internal/apperrors"
	"rewear/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Caller is the authenticated identity performing an operation.
type Caller struct {
	UserID string
	Role   domain.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// Service executes exchange operations against the data store.
type Service struct {
	db *gorm.DB
}

// NewService creates a new Service instance
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// atomically runs fn in a transaction. Domain errors pass through with their kind; anything else,
// including a failed commit, is reported as a transaction failure.
func (s *Service) atomically(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	if apperrors.Kind(err) != nil {
		return fmt.Errorf("exchange: %s: %w", op, err)
	}
	return fmt.Errorf("exchange: %s: %w: %v", op, apperrors.ErrTransaction, err)
}

func requireAdmin(c Caller) error {
	if !c.IsAdmin() {
		return fmt.Errorf("%w: admin role required", apperrors.ErrAuthorization)
	}
	return nil
}

// activeUser loads the caller's record and rejects suspended accounts.
func activeUser(tx *gorm.DB, c Caller) (*domain.User, error) {
	if c.UserID == "" {
		return nil, fmt.Errorf("%w: missing caller", apperrors.ErrAuthorization)
	}
	var user domain.User
	if err := tx.Where("id = ?", c.UserID).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, c.UserID)
		}
		return nil, err
	}
	if user.Suspended {
		return nil, fmt.Errorf("%w: account is suspended", apperrors.ErrAuthorization)
	}
	return &user, nil
}

// lockItem reads an item with a row lock held until the transaction ends.
func lockItem(tx *gorm.DB, itemID string) (*domain.Item, error) {
	var item domain.Item
	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).Where("id = ?", itemID).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: item %s", apperrors.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// lockSwap reads a swap with a row lock held until the transaction ends.
func lockSwap(tx *gorm.DB, swapID string) (*domain.Swap, error) {
	var swap domain.Swap
	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).Where("id = ?", swapID).Take(&swap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: swap %s", apperrors.ErrNotFound, swapID)
	}
	if err != nil {
		return nil, err
	}
	return &swap, nil
}
