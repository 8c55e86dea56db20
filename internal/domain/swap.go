package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Primary key generation
	"gorm.io/gorm"           // GORM ORM library
)

// SwapStatus is the lifecycle state of a swap
type SwapStatus string

const (
	SwapPending   SwapStatus = "PENDING"   // Awaiting the owner's or an admin's decision
	SwapCompleted SwapStatus = "COMPLETED" // Terminal: ownership and points moved
	SwapCancelled SwapStatus = "CANCELLED" // Terminal: nothing moved
)

// Valid reports whether s is a known swap status
func (s SwapStatus) Valid() bool {
	switch s {
	case SwapPending, SwapCompleted, SwapCancelled:
		return true
	}
	return false
}

// SwapKind records which workflow created a swap
type SwapKind string

const (
	SwapKindRequest    SwapKind = "REQUEST"    // Two-step request and approval
	SwapKindRedemption SwapKind = "REDEMPTION" // One-step points redemption
)

// Swap Model
type Swap struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`                  // Primary key (uuid)
	ItemID     string     `gorm:"size:36;not null;index" json:"itemId"`          // Item being exchanged
	Item       *Item      `gorm:"foreignKey:ItemID" json:"item,omitempty"`       // Item relation
	FromUserID string     `gorm:"size:36;not null;index" json:"fromUserId"`      // Requester or redeemer
	FromUser   *User      `gorm:"foreignKey:FromUserID" json:"fromUser,omitempty"` // Requester relation
	ToUserID   string     `gorm:"size:36;not null;index" json:"toUserId"`        // Owner at request time
	ToUser     *User      `gorm:"foreignKey:ToUserID" json:"toUser,omitempty"`   // Owner relation
	Status     SwapStatus `gorm:"size:16;not null;index" json:"status"`          // Lifecycle status
	Kind       SwapKind   `gorm:"size:16;not null" json:"kind"`                  // Originating workflow
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`                        // Creation timestamp
	UpdatedAt  time.Time  `json:"updatedAt"`                                     // Last update timestamp
}

// BeforeCreate assigns a uuid when the caller did not set one
func (s *Swap) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
