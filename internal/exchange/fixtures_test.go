package exchange

import (
	"context"
	"testing"

	"rewear/internal/db"
	"rewear/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	svc *Service
	ctx context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	return &fixture{t: t, db: database, svc: NewService(database), ctx: context.Background()}
}

func (f *fixture) user(name string, role domain.Role, points int) *domain.User {
	f.t.Helper()
	u := &domain.User{
		Name:     name,
		Email:    name + "-" + uuid.NewString()[:8] + "@example.com",
		Password: "hash",
		Role:     role,
		Points:   points,
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) item(owner *domain.User, status domain.ItemStatus) *domain.Item {
	f.t.Helper()
	i := &domain.Item{
		OwnerID:     owner.ID,
		Title:       "Denim jacket",
		Description: "Barely worn",
		Category:    "Outerwear",
		Size:        "M",
		Condition:   "Good",
		Tags:        []string{"denim"},
		Images:      []string{"https://cdn.example.com/a.jpg"},
		Status:      status,
	}
	require.NoError(f.t, f.db.Create(i).Error)
	return i
}

func (f *fixture) reloadUser(id string) *domain.User {
	f.t.Helper()
	var u domain.User
	require.NoError(f.t, f.db.Where("id = ?", id).Take(&u).Error)
	return &u
}

func (f *fixture) reloadItem(id string) *domain.Item {
	f.t.Helper()
	var i domain.Item
	require.NoError(f.t, f.db.Where("id = ?", id).Take(&i).Error)
	return &i
}

func (f *fixture) reloadSwap(id string) *domain.Swap {
	f.t.Helper()
	var s domain.Swap
	require.NoError(f.t, f.db.Where("id = ?", id).Take(&s).Error)
	return &s
}

func (f *fixture) count(model any, query string, args ...any) int64 {
	f.t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(f.t, q.Count(&n).Error)
	return n
}

func callerOf(u *domain.User) Caller {
	return Caller{UserID: u.ID, Role: u.Role}
}
