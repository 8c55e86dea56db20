package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Primary key generation
	"gorm.io/gorm"           // GORM ORM library
)

// Role is a user's permission level
type Role string

const (
	RoleMember Role = "MEMBER" // Regular community member
	RoleAdmin  Role = "ADMIN"  // Moderator with dashboard access
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User Model
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`                   // Primary key (uuid)
	Name      string    `gorm:"size:128;not null" json:"name"`                  // Display name
	Email     string    `gorm:"size:191;uniqueIndex;not null" json:"email"`     // Unique login email
	Password  string    `gorm:"size:72;not null" json:"-"`                      // Hashed password
	Role      Role      `gorm:"size:16;not null;index" json:"role"`             // Role: MEMBER or ADMIN
	Points    int       `gorm:"not null" json:"points"`                         // Points balance, never negative
	Suspended bool      `gorm:"not null" json:"suspended"`                      // Suspended users cannot act
	CreatedAt time.Time `json:"createdAt"`                                      // Creation timestamp
	UpdatedAt time.Time `json:"updatedAt"`                                      // Last update timestamp
}

// BeforeCreate assigns a uuid when the caller did not set one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
