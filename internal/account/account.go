// Package account registers members and checks their credentials.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"rewear/internal/apperrors"
	"rewear/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterInput carries a signup request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Service manages user accounts.
type Service struct {
	db   *gorm.DB
	cost int
}

// NewService creates a new Service instance; cost is the bcrypt work factor (0 uses the default).
func NewService(db *gorm.DB, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{db: db, cost: cost}
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return fmt.Errorf("%w: password must be 8-72 bytes", apperrors.ErrValidation)
	}
	return nil
}

// Register creates a MEMBER account with an empty points balance.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" {
		return nil, fmt.Errorf("account: register: %w: name is required", apperrors.ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("account: register: %w: invalid email", apperrors.ErrValidation)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("account: register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("account: hashing password: %w", err)
	}

	user := &domain.User{Name: name, Email: email, Password: string(hash), Role: domain.RoleMember}
	// The unique index on email decides races between sign-ups
	err = s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("account: register: %w: email already registered", apperrors.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("account: register: %w: %v", apperrors.ErrTransaction, err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
	return user, nil
}

// errBadCredentials is returned for every login failure.
var errBadCredentials = fmt.Errorf("%w: invalid credentials", apperrors.ErrAuthorization)

// Authenticate returns the user matching email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("account: loading user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	if user.Suspended {
		return nil, errBadCredentials
	}
	return &user, nil
}

// EnsureAdmin creates an admin account, or promotes and re-keys an existing one with that email.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("account: ensure admin: %w: invalid email", apperrors.ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("account: ensure admin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("account: hashing password: %w", err)
	}

	var user domain.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).Take(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = domain.User{Name: name, Email: email, Password: string(hash), Role: domain.RoleAdmin}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		user.Role = domain.RoleAdmin
		user.Password = string(hash)
		user.Suspended = false
		return tx.Model(&user).Updates(map[string]any{
			"role":      domain.RoleAdmin,
			"password":  user.Password,
			"suspended": false,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("account: ensure admin: %w", err)
	}
	return &user, nil
}
