package exchange

import (
	"context"
	"errors"
	"fmt"

	"rewear/internal/apperrors"
	"rewear/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserAction is an admin operation on an account.
type UserAction string

const (
	UserSuspend  UserAction = "SUSPEND"
	UserActivate UserAction = "ACTIVATE"
	UserDelete   UserAction = "DELETE"
)

// ManageUser suspends, reactivates or deletes an account. Deletion is refused while the user
// owns items or appears on any swap; suspension is the route for accounts with history.
func (s *Service) ManageUser(ctx context.Context, c Caller, userID string, action UserAction) error {
	if err := requireAdmin(c); err != nil {
		return fmt.Errorf("exchange: manage user: %w", err)
	}
	switch action {
	case UserSuspend, UserActivate, UserDelete:
	default:
		return fmt.Errorf("exchange: manage user: %w: unknown action %q", apperrors.ErrValidation, action)
	}
	if userID == "" {
		return fmt.Errorf("exchange: manage user: %w: user id is required", apperrors.ErrValidation)
	}
	if userID == c.UserID && action != UserActivate {
		return fmt.Errorf("exchange: manage user: %w: cannot %s your own account", apperrors.ErrConflict, action)
	}

	err := s.atomically(ctx, "manage user", func(tx *gorm.DB) error {
		var user domain.User
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).Where("id = ?", userID).Take(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
		}
		if err != nil {
			return err
		}

		switch action {
		case UserSuspend:
			return tx.Model(&domain.User{}).Where("id = ?", userID).Update("suspended", true).Error
		case UserActivate:
			return tx.Model(&domain.User{}).Where("id = ?", userID).Update("suspended", false).Error
		}

		var owned int64
		if err := tx.Model(&domain.Item{}).Where("owner_id = ?", userID).Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return fmt.Errorf("%w: user owns %d items", apperrors.ErrConflict, owned)
		}
		var swaps int64
		if err := tx.Model(&domain.Swap{}).
			Where("from_user_id = ? OR to_user_id = ?", userID, userID).
			Count(&swaps).Error; err != nil {
			return err
		}
		if swaps > 0 {
			return fmt.Errorf("%w: user is a party to %d swaps", apperrors.ErrConflict, swaps)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.PointsTransaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&domain.User{}).Error
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"action":   action,
		"admin_id": c.UserID,
	}).Info("User managed")
	return nil
}
