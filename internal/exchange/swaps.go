package exchange

import (
	"context"
	"fmt"

	"rewear/internal/apperrors"
	"rewear/internal/domain"
	"rewear/internal/ledger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SwapDecision is a verdict on a pending swap.
type SwapDecision string

const (
	SwapApprove SwapDecision = "APPROVE"
	SwapReject  SwapDecision = "REJECT"
	SwapCancel  SwapDecision = "CANCEL"
)

// checkEligible enforces the preconditions shared by Request and Redeem. It must run with the
// item row locked so the pending-swap check and the following write are one step. The pending
// lookup is a locking read so it sees swaps committed while this transaction waited for the lock.
func checkEligible(tx *gorm.DB, item *domain.Item, requesterID string) error {
	if item.Status != domain.ItemApproved {
		return fmt.Errorf("%w: item is not available (status %s)", apperrors.ErrConflict, item.Status)
	}
	if item.OwnerID == requesterID {
		return fmt.Errorf("%w: cannot swap your own item", apperrors.ErrConflict)
	}
	// PostgreSQL rejects FOR SHARE on aggregates, so fetch at most one id instead of counting.
	var pending []string
	if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
		Model(&domain.Swap{}).
		Where("item_id = ? AND status = ?", item.ID, domain.SwapPending).
		Limit(1).
		Pluck("id", &pending).Error; err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("%w: item already has a pending swap", apperrors.ErrConflict)
	}
	return nil
}

// Request opens a PENDING swap from the caller to the item's current owner.
func (s *Service) Request(ctx context.Context, c Caller, itemID string) (*domain.Swap, error) {
	if itemID == "" {
		return nil, fmt.Errorf("exchange: request: %w: item id is required", apperrors.ErrValidation)
	}

	var swap *domain.Swap
	err := s.atomically(ctx, "request", func(tx *gorm.DB) error {
		// The item lock comes first so every later read sees what the previous holder committed.
		item, err := lockItem(tx, itemID)
		if err != nil {
			return err
		}
		if _, err := activeUser(tx, c); err != nil {
			return err
		}
		if err := checkEligible(tx, item, c.UserID); err != nil {
			return err
		}
		swap = &domain.Swap{
			ItemID:     item.ID,
			FromUserID: c.UserID,
			ToUserID:   item.OwnerID,
			Status:     domain.SwapPending,
			Kind:       domain.SwapKindRequest,
		}
		return tx.Create(swap).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"swap_id":      swap.ID,
		"item_id":      swap.ItemID,
		"from_user_id": swap.FromUserID,
		"to_user_id":   swap.ToUserID,
	}).Info("Swap requested")
	return swap, nil
}

// Redeem buys an item with points in one step: the swap is recorded as COMPLETED and the
// orchestrator moves ownership and points in the same transaction.
func (s *Service) Redeem(ctx context.Context, c Caller, itemID string) (*domain.Swap, error) {
	if itemID == "" {
		return nil, fmt.Errorf("exchange: redeem: %w: item id is required", apperrors.ErrValidation)
	}

	var swap *domain.Swap
	err := s.atomically(ctx, "redeem", func(tx *gorm.DB) error {
		item, err := lockItem(tx, itemID)
		if err != nil {
			return err
		}
		requester, err := activeUser(tx, c)
		if err != nil {
			return err
		}
		if err := checkEligible(tx, item, requester.ID); err != nil {
			return err
		}
		if requester.Points < ledger.Fee {
			return fmt.Errorf("%w: %d points required, have %d", apperrors.ErrInsufficientFunds, ledger.Fee, requester.Points)
		}
		swap = &domain.Swap{
			ItemID:     item.ID,
			FromUserID: requester.ID,
			ToUserID:   item.OwnerID,
			Status:     domain.SwapCompleted,
			Kind:       domain.SwapKindRedemption,
		}
		if err := tx.Create(swap).Error; err != nil {
			return err
		}
		return completeSwap(tx, swap)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"swap_id":      swap.ID,
		"item_id":      swap.ItemID,
		"from_user_id": swap.FromUserID,
		"to_user_id":   swap.ToUserID,
		"points":       ledger.Fee,
	}).Info("Item redeemed")
	return swap, nil
}

// canDecide reports whether the caller may apply decision to swap. Admins and the receiving
// owner may approve or reject; the requester may additionally withdraw with CANCEL.
func canDecide(c Caller, swap *domain.Swap, decision SwapDecision) bool {
	if c.IsAdmin() || c.UserID == swap.ToUserID {
		return true
	}
	return decision == SwapCancel && c.UserID == swap.FromUserID
}

// Decide completes or cancels a PENDING swap.
func (s *Service) Decide(ctx context.Context, c Caller, swapID string, decision SwapDecision) (*domain.Swap, error) {
	switch decision {
	case SwapApprove, SwapReject, SwapCancel:
	default:
		return nil, fmt.Errorf("exchange: decide: %w: unknown decision %q", apperrors.ErrValidation, decision)
	}
	if swapID == "" {
		return nil, fmt.Errorf("exchange: decide: %w: swap id is required", apperrors.ErrValidation)
	}

	var swap *domain.Swap
	err := s.atomically(ctx, "decide", func(tx *gorm.DB) error {
		var err error
		if swap, err = lockSwap(tx, swapID); err != nil {
			return err
		}
		if _, err := activeUser(tx, c); err != nil {
			return err
		}
		if !canDecide(c, swap, decision) {
			return fmt.Errorf("%w: not allowed to %s this swap", apperrors.ErrAuthorization, decision)
		}
		if swap.Status != domain.SwapPending {
			return fmt.Errorf("%w: swap is %s", apperrors.ErrConflict, swap.Status)
		}
		if decision == SwapApprove {
			return completeSwap(tx, swap)
		}
		return transitionSwap(tx, swap, domain.SwapCancelled)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"swap_id":    swap.ID,
		"item_id":    swap.ItemID,
		"decision":   decision,
		"status":     swap.Status,
		"decided_by": c.UserID,
	}).Info("Swap decided")
	return swap, nil
}
