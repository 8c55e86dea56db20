package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Primary key generation
	"gorm.io/gorm"           // GORM ORM library
)

// PointsReason explains a ledger entry
type PointsReason string

const (
	ReasonListingReward PointsReason = "LISTING_REWARD" // Credit for an approved listing
	ReasonSwapDebit     PointsReason = "SWAP_DEBIT"     // Charge to the user receiving an item
	ReasonSwapCredit    PointsReason = "SWAP_CREDIT"    // Payment to the user giving an item
)

// PointsTransaction Model, one row per change of a user's points balance
type PointsTransaction struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`      // Primary key (uuid)
	UserID    string       `gorm:"size:36;not null;index" json:"userId"` // Account whose balance changed
	Amount    int          `gorm:"not null" json:"amount"`            // Signed amount: credit > 0, debit < 0
	Reason    PointsReason `gorm:"size:32;not null" json:"reason"`    // Why the balance changed
	ItemID    *string      `gorm:"size:36;index" json:"itemId,omitempty"` // Related item, if any
	SwapID    *string      `gorm:"size:36;index" json:"swapId,omitempty"` // Related swap, if any
	CreatedAt time.Time    `gorm:"index" json:"createdAt"`            // Timestamp of creation
}

// BeforeCreate assigns a uuid when the caller did not set one
func (p *PointsTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
