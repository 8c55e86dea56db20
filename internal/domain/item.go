package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Primary key generation
	"gorm.io/gorm"           // GORM ORM library
)

// ItemStatus is the moderation state of a listing
type ItemStatus string

const (
	ItemPending  ItemStatus = "PENDING"  // Awaiting moderation
	ItemApproved ItemStatus = "APPROVED" // Visible and exchangeable
	ItemRejected ItemStatus = "REJECTED" // Declined by a moderator
)

// Valid reports whether s is a known item status
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemApproved, ItemRejected:
		return true
	}
	return false
}

// Item Model
type Item struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`                     // Primary key (uuid)
	OwnerID     string     `gorm:"size:36;not null;index" json:"ownerId"`            // Current owner
	Owner       *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`        // Owner relation
	Title       string     `gorm:"size:200;not null" json:"title"`                   // Listing title
	Description string     `gorm:"type:text;not null" json:"description"`            // Listing description
	Category    string     `gorm:"size:64;not null;index" json:"category"`           // Clothing category
	Size        string     `gorm:"size:32;not null" json:"size"`                     // Garment size
	Condition   string     `gorm:"size:32;not null;index" json:"condition"`          // Garment condition
	Tags        []string   `gorm:"type:text;serializer:json" json:"tags"`            // Set of tags
	Images      []string   `gorm:"type:text;serializer:json" json:"images"`          // Hosted image URIs, stored verbatim
	Status      ItemStatus `gorm:"size:16;not null;index" json:"status"`             // Moderation status
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`                           // Creation timestamp
	UpdatedAt   time.Time  `json:"updatedAt"`                                        // Last update timestamp
}

// BeforeCreate assigns a uuid when the caller did not set one
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
