package exchange

import (
	"fmt"

	"rewear/internal/apperrors"
	"rewear/internal/domain"
	"rewear/internal/ledger"

	"gorm.io/gorm"
)

// completeSwap applies the four effects of a completed swap inside tx: the status becomes
// COMPLETED, the item moves to the requester, and Fee points move from requester to owner.
// A pending swap is only completed if it is still PENDING; a redemption swap is created already
// COMPLETED by the caller. Any error aborts tx and nothing is applied.
func completeSwap(tx *gorm.DB, swap *domain.Swap) error {
	if swap.Status == domain.SwapPending {
		if err := transitionSwap(tx, swap, domain.SwapCompleted); err != nil {
			return err
		}
	}
	if swap.Status != domain.SwapCompleted {
		return fmt.Errorf("%w: swap is %s", apperrors.ErrConflict, swap.Status)
	}

	if err := transferOwnership(tx, swap); err != nil {
		return err
	}
	if err := ledger.Debit(tx, swap.FromUserID, ledger.Fee, ledger.Entry{
		Reason: domain.ReasonSwapDebit,
		ItemID: swap.ItemID,
		SwapID: swap.ID,
	}); err != nil {
		return err
	}
	return ledger.Credit(tx, swap.ToUserID, ledger.Fee, ledger.Entry{
		Reason: domain.ReasonSwapCredit,
		ItemID: swap.ItemID,
		SwapID: swap.ID,
	})
}

// transitionSwap moves a PENDING swap to next. The write is conditional on the stored status,
// so of two racing decisions only the first changes a row.
func transitionSwap(tx *gorm.DB, swap *domain.Swap, next domain.SwapStatus) error {
	res := tx.Model(&domain.Swap{}).
		Where("id = ? AND status = ?", swap.ID, domain.SwapPending).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: swap is not pending", apperrors.ErrConflict)
	}
	swap.Status = next
	return nil
}

// transferOwnership reassigns the item to the swap's requester, provided the owner recorded on
// the swap still owns it.
func transferOwnership(tx *gorm.DB, swap *domain.Swap) error {
	res := tx.Model(&domain.Item{}).
		Where("id = ? AND owner_id = ?", swap.ItemID, swap.ToUserID).
		Update("owner_id", swap.FromUserID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: item %s is no longer owned by %s", apperrors.ErrConflict, swap.ItemID, swap.ToUserID)
	}
	return nil
}
