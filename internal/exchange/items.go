package exchange

import (
	"context"
	"fmt"
	"strings"

	"rewear/internal/apperrors"
	"rewear/internal/domain"
	"rewear/internal/ledger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ItemInput carries the fields of a new listing.
type ItemInput struct {
	Title       string
	Description string
	Category    string
	Size        string
	Condition   string
	Tags        []string
	Images      []string
}

// ModerationDecision is an admin verdict on a pending listing.
type ModerationDecision string

const (
	ModerationApprove ModerationDecision = "APPROVE"
	ModerationReject  ModerationDecision = "REJECT"
)

func (in ItemInput) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"size", in.Size},
		{"condition", in.Condition},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", apperrors.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// normalizeTags trims tags and drops blanks and repeats, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Submit creates a PENDING listing owned by the caller.
func (s *Service) Submit(ctx context.Context, c Caller, in ItemInput) (*domain.Item, error) {
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("exchange: submit: %w", err)
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	item := &domain.Item{
		OwnerID:     c.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Size:        strings.TrimSpace(in.Size),
		Condition:   strings.TrimSpace(in.Condition),
		Tags:        normalizeTags(in.Tags),
		Images:      images,
		Status:      domain.ItemPending,
	}

	err := s.atomically(ctx, "submit", func(tx *gorm.DB) error {
		if _, err := activeUser(tx, c); err != nil {
			return err
		}
		return tx.Create(item).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"item_id":  item.ID,
		"owner_id": item.OwnerID,
	}).Info("Item submitted")
	return item, nil
}

// Moderate approves or rejects a PENDING listing. Approval credits the owner the listing reward
// in the same transaction; a listing that already left PENDING is a conflict.
func (s *Service) Moderate(ctx context.Context, c Caller, itemID string, decision ModerationDecision) (*domain.Item, error) {
	if err := requireAdmin(c); err != nil {
		return nil, fmt.Errorf("exchange: moderate: %w", err)
	}
	var next domain.ItemStatus
	switch decision {
	case ModerationApprove:
		next = domain.ItemApproved
	case ModerationReject:
		next = domain.ItemRejected
	default:
		return nil, fmt.Errorf("exchange: moderate: %w: unknown decision %q", apperrors.ErrValidation, decision)
	}
	if itemID == "" {
		return nil, fmt.Errorf("exchange: moderate: %w: item id is required", apperrors.ErrValidation)
	}

	var item *domain.Item
	err := s.atomically(ctx, "moderate", func(tx *gorm.DB) error {
		var err error
		if item, err = lockItem(tx, itemID); err != nil {
			return err
		}

		res := tx.Model(&domain.Item{}).
			Where("id = ? AND status = ?", itemID, domain.ItemPending).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: item is %s, not %s", apperrors.ErrConflict, item.Status, domain.ItemPending)
		}
		item.Status = next

		if next == domain.ItemApproved {
			return ledger.Credit(tx, item.OwnerID, ledger.Fee, ledger.Entry{
				Reason: domain.ReasonListingReward,
				ItemID: item.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"item_id":  item.ID,
		"owner_id": item.OwnerID,
		"status":   item.Status,
		"admin_id": c.UserID,
	}).Info("Item moderated")
	return item, nil
}

// Remove hard-deletes a listing in any status, together with the swaps that reference it.
// Points already moved for the item stay where they are.
func (s *Service) Remove(ctx context.Context, c Caller, itemID string) error {
	if err := requireAdmin(c); err != nil {
		return fmt.Errorf("exchange: remove: %w", err)
	}
	if itemID == "" {
		return fmt.Errorf("exchange: remove: %w: item id is required", apperrors.ErrValidation)
	}

	err := s.atomically(ctx, "remove", func(tx *gorm.DB) error {
		if _, err := lockItem(tx, itemID); err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&domain.Swap{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", itemID).Delete(&domain.Item{}).Error
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"item_id":  itemID,
		"admin_id": c.UserID,
	}).Info("Item removed")
	return nil
}
