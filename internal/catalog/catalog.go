// Package catalog serves the read side: listings, swaps, users, admin statistics and the
// member dashboard. Filters are typed structs with a fixed set of fields.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"rewear/internal/apperrors"
	"rewear/internal/domain"
	"rewear/internal/ledger"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultItemLimit = 12  // Default page size for item listings
	DefaultLimit     = 20  // Default page size for admin listings
	MaxLimit         = 100 // Largest accepted page size
	FeaturedCount    = 6   // Items shown on the landing page
	HistoryLimit     = 50  // Ledger entries shown on the dashboard
)

// ItemSort orders item listings.
type ItemSort string

const (
	SortNewest ItemSort = "newest"
	SortOldest ItemSort = "oldest"
	SortTitle  ItemSort = "title"
)

// Pagination selects one page of results.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) normalize(fallback int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = fallback
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of results plus totals.
type Page[T any] struct {
	Data        []T   `json:"data"`
	TotalCount  int64 `json:"totalCount"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasMore     bool  `json:"hasMore"`
}

func newPage[T any](data []T, total int64, p Pagination) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:        data,
		TotalCount:  total,
		CurrentPage: p.Page,
		Limit:       p.Limit,
		TotalPages:  int((total + int64(p.Limit) - 1) / int64(p.Limit)),
		HasMore:     int64(p.Page*p.Limit) < total,
	}
}

// ItemFilter narrows item listings. Empty fields do not filter.
type ItemFilter struct {
	Status    domain.ItemStatus
	Category  string
	Condition string
	OwnerID   string
	Sort      ItemSort
	Pagination
}

// SwapFilter narrows swap listings. UserID matches either party.
type SwapFilter struct {
	Status domain.SwapStatus
	UserID string
	ItemID string
	Pagination
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role      domain.Role
	Suspended *bool
	Pagination
}

// UserSummary is a user row with activity counts for the admin dashboard.
type UserSummary struct {
	domain.User
	ItemCount int64 `json:"itemCount"`
	SwapCount int64 `json:"swapCount"`
}

// Stats are the admin dashboard counters.
type Stats struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalItems    int64 `json:"totalItems"`
	PendingItems  int64 `json:"pendingItems"`
	ApprovedItems int64 `json:"approvedItems"`
	RejectedItems int64 `json:"rejectedItems"`
	TotalSwaps    int64 `json:"totalSwaps"`
	PendingSwaps  int64 `json:"pendingSwaps"`
}

// Dashboard is everything a member sees about their own account.
type Dashboard struct {
	User    domain.User                `json:"user"`
	Items   []domain.Item              `json:"items"`
	Swaps   []domain.Swap              `json:"swaps"`
	History []domain.PointsTransaction `json:"history"`
}

// Catalog runs read queries.
type Catalog struct {
	db *gorm.DB
}

// New creates a new Catalog instance
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ownerColumns limits preloaded owners to public fields.
func ownerColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "role", "points", "suspended", "created_at", "updated_at")
}

// ListItems returns a page of items matching f, each with its owner.
func (c *Catalog) ListItems(ctx context.Context, f ItemFilter) (Page[domain.Item], error) {
	p := f.Pagination.normalize(DefaultItemLimit)
	if f.Status != "" && !f.Status.Valid() {
		return Page[domain.Item]{}, fmt.Errorf("catalog: %w: unknown item status %q", apperrors.ErrValidation, f.Status)
	}

	order := "created_at desc"
	switch f.Sort {
	case SortOldest:
		order = "created_at asc"
	case SortTitle:
		order = "title asc"
	case SortNewest, "":
	default:
		return Page[domain.Item]{}, fmt.Errorf("catalog: %w: unknown sort %q", apperrors.ErrValidation, f.Sort)
	}

	q := c.db.WithContext(ctx).Model(&domain.Item{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Condition != "" {
		q = q.Where(clause.Eq{Column: clause.Column{Name: "condition"}, Value: f.Condition}) // CONDITION is reserved in MySQL
	}
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[domain.Item]{}, fmt.Errorf("catalog: counting items: %w", err)
	}

	var items []domain.Item
	if err := q.Preload("Owner", ownerColumns).Order(order).Offset(p.offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		return Page[domain.Item]{}, fmt.Errorf("catalog: listing items: %w", err)
	}
	return newPage(items, total, p), nil
}

// Featured returns the newest approved items.
func (c *Catalog) Featured(ctx context.Context, n int) ([]domain.Item, error) {
	if n < 1 {
		n = FeaturedCount
	}
	items := []domain.Item{}
	err := c.db.WithContext(ctx).
		Preload("Owner", ownerColumns).
		Where("status = ?", domain.ItemApproved).
		Order("created_at desc").
		Limit(n).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: featured items: %w", err)
	}
	return items, nil
}

// GetItem returns one item with its owner.
func (c *Catalog) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	err := c.db.WithContext(ctx).Preload("Owner", ownerColumns).Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("catalog: %w: item %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: loading item: %w", err)
	}
	return &item, nil
}

// ListSwaps returns a page of swaps matching f with their item and both parties.
func (c *Catalog) ListSwaps(ctx context.Context, f SwapFilter) (Page[domain.Swap], error) {
	p := f.Pagination.normalize(DefaultLimit)
	if f.Status != "" && !f.Status.Valid() {
		return Page[domain.Swap]{}, fmt.Errorf("catalog: %w: unknown swap status %q", apperrors.ErrValidation, f.Status)
	}

	q := c.db.WithContext(ctx).Model(&domain.Swap{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		q = q.Where("from_user_id = ? OR to_user_id = ?", f.UserID, f.UserID)
	}
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[domain.Swap]{}, fmt.Errorf("catalog: counting swaps: %w", err)
	}

	var swaps []domain.Swap
	err := q.Preload("Item").
		Preload("FromUser", ownerColumns).
		Preload("ToUser", ownerColumns).
		Order("created_at desc").
		Offset(p.offset()).
		Limit(p.Limit).
		Find(&swaps).Error
	if err != nil {
		return Page[domain.Swap]{}, fmt.Errorf("catalog: listing swaps: %w", err)
	}
	return newPage(swaps, total, p), nil
}

// ListUsers returns a page of users with their owned-item and swap counts.
func (c *Catalog) ListUsers(ctx context.Context, f UserFilter) (Page[UserSummary], error) {
	p := f.Pagination.normalize(DefaultLimit)
	if f.Role != "" && !f.Role.Valid() {
		return Page[UserSummary]{}, fmt.Errorf("catalog: %w: unknown role %q", apperrors.ErrValidation, f.Role)
	}

	q := c.db.WithContext(ctx).Model(&domain.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Suspended != nil {
		q = q.Where("suspended = ?", *f.Suspended)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[UserSummary]{}, fmt.Errorf("catalog: counting users: %w", err)
	}

	var users []domain.User
	if err := q.Order("created_at desc").Offset(p.offset()).Limit(p.Limit).Find(&users).Error; err != nil {
		return Page[UserSummary]{}, fmt.Errorf("catalog: listing users: %w", err)
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	itemCounts, err := c.countBy(ctx, &domain.Item{}, "owner_id", ids)
	if err != nil {
		return Page[UserSummary]{}, fmt.Errorf("catalog: counting items: %w", err)
	}
	// A user is never on both sides of one swap, so the two tallies add up without overlap.
	fromCounts, err := c.countBy(ctx, &domain.Swap{}, "from_user_id", ids)
	if err != nil {
		return Page[UserSummary]{}, fmt.Errorf("catalog: counting swaps: %w", err)
	}
	toCounts, err := c.countBy(ctx, &domain.Swap{}, "to_user_id", ids)
	if err != nil {
		return Page[UserSummary]{}, fmt.Errorf("catalog: counting swaps: %w", err)
	}

	summaries := make([]UserSummary, len(users))
	for i, u := range users {
		summaries[i] = UserSummary{
			User:      u,
			ItemCount: itemCounts[u.ID],
			SwapCount: fromCounts[u.ID] + toCounts[u.ID],
		}
	}
	return newPage(summaries, total, p), nil
}

// countBy counts rows of model per value of column, for the given ids, in one grouped query.
func (c *Catalog) countBy(ctx context.Context, model any, column string, ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		ID string
		N  int64
	}
	err := c.db.WithContext(ctx).Model(model).
		Select(column+" AS id, COUNT(*) AS n").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ID] = r.N
	}
	return counts, nil
}

// Stats gathers the admin counters in parallel.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)

	count := func(dest *int64, model any, query string, args ...any) {
		g.Go(func() error {
			q := c.db.WithContext(gctx).Model(model)
			if query != "" {
				q = q.Where(query, args...)
			}
			return q.Count(dest).Error
		})
	}
	count(&s.TotalUsers, &domain.User{}, "")
	count(&s.TotalItems, &domain.Item{}, "")
	count(&s.PendingItems, &domain.Item{}, "status = ?", domain.ItemPending)
	count(&s.ApprovedItems, &domain.Item{}, "status = ?", domain.ItemApproved)
	count(&s.RejectedItems, &domain.Item{}, "status = ?", domain.ItemRejected)
	count(&s.TotalSwaps, &domain.Swap{}, "")
	count(&s.PendingSwaps, &domain.Swap{}, "status = ?", domain.SwapPending)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("catalog: stats: %w", err)
	}
	return &s, nil
}

// Dashboard loads the user's profile, listings, swaps and recent ledger entries.
func (c *Catalog) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	var d Dashboard
	err := c.db.WithContext(ctx).Where("id = ?", userID).Take(&d.User).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("catalog: %w: user %s", apperrors.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: loading user: %w", err)
	}

	d.Items, d.Swaps, d.History = []domain.Item{}, []domain.Swap{}, []domain.PointsTransaction{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.db.WithContext(gctx).Where("owner_id = ?", userID).Order("created_at desc").Find(&d.Items).Error
	})
	g.Go(func() error {
		return c.db.WithContext(gctx).
			Preload("Item").
			Where("from_user_id = ? OR to_user_id = ?", userID, userID).
			Order("created_at desc").
			Find(&d.Swaps).Error
	})
	g.Go(func() error {
		history, err := ledger.History(c.db.WithContext(gctx), userID, HistoryLimit)
		if err != nil {
			return err
		}
		if history != nil {
			d.History = history
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("catalog: dashboard: %w", err)
	}
	return &d, nil
}
