package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"rewear/internal/account"
	"rewear/internal/catalog"
	"rewear/internal/db"
	"rewear/internal/domain"
	"rewear/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis
	admin  string // admin token
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := db.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	router, err := SetupRouter(database, rdb, RouterOptions{
		JWTSecret:  testJWTSecret,
		TokenTTL:   time.Hour,
		CacheTTL:   time.Minute,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	_, err = account.NewService(database, bcrypt.MinCost).
		EnsureAdmin(context.Background(), "Admin", "admin@example.com", "admin-password")
	require.NoError(t, err)

	s := &testServer{t: t, router: router, db: database, redis: mr}
	s.admin = s.login("admin@example.com", "admin-password")
	return s
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

// member registers and logs in a new account, returning its ID and token.
func (s *testServer) member(name, email string) (string, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "long-enough-password",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		User domain.User `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User.ID, s.login(email, "long-enough-password")
}

// listing submits an item as token and approves it as admin.
func (s *testServer) listing(token, title string) domain.Item {
	s.t.Helper()
	w := s.do(http.MethodPost, "/items", token, map[string]any{
		"title": title, "description": "Barely worn", "category": "Outerwear",
		"size": "M", "condition": "Good", "tags": []string{"winter"},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Item domain.Item `json:"item"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.t, domain.ItemPending, resp.Item.Status)

	w = s.do(http.MethodPost, "/admin/items/"+resp.Item.ID+"/moderation", s.admin, map[string]string{"action": "APPROVE"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return resp.Item
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSetupRouterRequiresJWTSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	_, err := SetupRouter(db.NewTestDB(t), rdb, RouterOptions{TokenTTL: time.Hour, CacheTTL: time.Minute})
	require.Error(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "whatever-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := setupTestServer(t)
	s.member("Alice", "alice@example.com")

	w := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Alice Again", "email": "ALICE@example.com", "password": "long-enough-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate email")

	w = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "short password")
}

func TestSwapFlow(t *testing.T) {
	s := setupTestServer(t)
	aliceID, alice := s.member("Alice", "alice@example.com")
	bobID, bob := s.member("Bob", "bob@example.com")

	jacket := s.listing(alice, "Denim jacket")
	s.listing(bob, "Wool scarf")

	// Bob asks for Alice's jacket.
	w := s.do(http.MethodPost, "/swaps", bob, map[string]string{"itemId": jacket.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	swap := decode[struct {
		Swap domain.Swap `json:"swap"`
	}](t, w).Swap
	assert.Equal(t, domain.SwapPending, swap.Status)
	assert.Equal(t, aliceID, swap.ToUserID)

	// A second request for the same item is refused while the first is pending.
	_, carol := s.member("Carol", "carol@example.com")
	w = s.do(http.MethodPost, "/swaps", carol, map[string]string{"itemId": jacket.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bob cannot approve his own request.
	w = s.do(http.MethodPost, "/swaps/"+swap.ID+"/decision", bob, map[string]string{"decision": "APPROVE"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Alice approves.
	w = s.do(http.MethodPost, "/swaps/"+swap.ID+"/decision", alice, map[string]string{"decision": "APPROVE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	dash := decode[catalog.Dashboard](t, s.do(http.MethodGet, "/user/dashboard", bob, nil))
	assert.Equal(t, bobID, dash.User.ID)
	assert.Equal(t, 0, dash.User.Points)
	assert.Len(t, dash.Items, 2, "Bob owns the scarf and the jacket")

	dash = decode[catalog.Dashboard](t, s.do(http.MethodGet, "/user/dashboard", alice, nil))
	assert.Equal(t, 20, dash.User.Points)
	assert.Empty(t, dash.Items)

	// Deciding again is a conflict.
	w = s.do(http.MethodPost, "/swaps/"+swap.ID+"/decision", alice, map[string]string{"decision": "CANCEL"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRedeemFlow(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")
	bobID, bob := s.member("Bob", "bob@example.com")
	jacket := s.listing(alice, "Denim jacket")

	// Bob has no points yet.
	w := s.do(http.MethodPost, "/swaps/redeem", bob, map[string]string{"itemId": jacket.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.listing(bob, "Wool scarf")
	w = s.do(http.MethodPost, "/swaps/redeem", bob, map[string]string{"itemId": jacket.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	swap := decode[struct {
		Swap domain.Swap `json:"swap"`
	}](t, w).Swap
	assert.Equal(t, domain.SwapCompleted, swap.Status)
	assert.Equal(t, domain.SwapKindRedemption, swap.Kind)

	item := decode[domain.Item](t, s.do(http.MethodGet, "/items/"+jacket.ID, "", nil))
	assert.Equal(t, bobID, item.OwnerID)
}

func TestErrorStatusMapping(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"missing token", http.MethodPost, "/swaps", "", map[string]string{"itemId": "x"}, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/user/dashboard", "not-a-jwt", nil, http.StatusUnauthorized},
		{"member on admin route", http.MethodGet, "/admin/stats", alice, nil, http.StatusForbidden},
		{"unknown item", http.MethodPost, "/swaps", alice, map[string]string{"itemId": "missing"}, http.StatusNotFound},
		{"unknown item detail", http.MethodGet, "/items/missing", "", nil, http.StatusNotFound},
		{"unknown swap", http.MethodPost, "/swaps/missing/decision", alice, map[string]string{"decision": "CANCEL"}, http.StatusNotFound},
		{"bad decision", http.MethodPost, "/swaps/missing/decision", alice, map[string]string{"decision": "MAYBE"}, http.StatusBadRequest},
		{"bad moderation action", http.MethodPost, "/admin/items/x/moderation", s.admin, map[string]string{"action": "BURN"}, http.StatusBadRequest},
		{"bad user action", http.MethodPost, "/admin/users/x/action", s.admin, map[string]string{"action": "PROMOTE"}, http.StatusBadRequest},
		{"bad sort", http.MethodGet, "/items?sort=random", "", nil, http.StatusBadRequest},
		{"bad suspended filter", http.MethodGet, "/admin/users?suspended=maybe", s.admin, nil, http.StatusBadRequest},
		{"incomplete listing", http.MethodPost, "/items", alice, map[string]string{"title": "Hat"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSuspendedUserIsLockedOut(t *testing.T) {
	s := setupTestServer(t)
	aliceID, alice := s.member("Alice", "alice@example.com")

	w := s.do(http.MethodPost, "/admin/users/"+aliceID+"/action", s.admin, map[string]string{"action": "SUSPEND"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/user/dashboard", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "alice@example.com", "password": "long-enough-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	suspended := decode[catalog.Page[catalog.UserSummary]](t, s.do(http.MethodGet, "/admin/users?suspended=true", s.admin, nil))
	require.Len(t, suspended.Data, 1)
	assert.Equal(t, aliceID, suspended.Data[0].ID)

	w = s.do(http.MethodPost, "/admin/users/"+aliceID+"/action", s.admin, map[string]string{"action": "ACTIVATE"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/user/dashboard", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBrowseIsCachedAndInvalidated(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")
	s.listing(alice, "Denim jacket")

	w := s.do(http.MethodGet, "/items?category=Outerwear", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cacheMiss, w.Header().Get(cacheHeader))
	page := decode[catalog.Page[domain.Item]](t, w)
	assert.EqualValues(t, 1, page.TotalCount)

	w = s.do(http.MethodGet, "/items?category=Outerwear", "", nil)
	assert.Equal(t, cacheHit, w.Header().Get(cacheHeader))

	// A new approved listing drops every cached page.
	s.listing(alice, "Rain coat")
	w = s.do(http.MethodGet, "/items?category=Outerwear", "", nil)
	assert.Equal(t, cacheMiss, w.Header().Get(cacheHeader))
	page = decode[catalog.Page[domain.Item]](t, w)
	assert.EqualValues(t, 2, page.TotalCount)
}

func TestWriteDropsEveryCachedListingPage(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")

	for i := 0; i < 150; i++ {
		require.NoError(t, s.redis.Set(utils.CacheItemsPrefix+"browse:page="+strconv.Itoa(i), "{}"))
	}
	s.listing(alice, "Denim jacket")

	for _, key := range s.redis.Keys() {
		assert.NotContains(t, key, utils.CacheItemsPrefix)
	}
}

func TestBrowseHidesUnapprovedItems(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")
	s.listing(alice, "Denim jacket")
	w := s.do(http.MethodPost, "/items", alice, map[string]any{
		"title": "Pending hat", "description": "New", "category": "Accessories", "size": "One", "condition": "New",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	public := decode[catalog.Page[domain.Item]](t, s.do(http.MethodGet, "/items", "", nil))
	assert.EqualValues(t, 1, public.TotalCount)

	pending := decode[catalog.Page[domain.Item]](t, s.do(http.MethodGet, "/admin/items?status=PENDING", s.admin, nil))
	require.EqualValues(t, 1, pending.TotalCount)
	assert.Equal(t, "Pending hat", pending.Data[0].Title)

	all := decode[catalog.Page[domain.Item]](t, s.do(http.MethodGet, "/admin/items?status=ALL", s.admin, nil))
	assert.EqualValues(t, 2, all.TotalCount)
}

func TestAdminStatsAndRemoval(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")
	_, bob := s.member("Bob", "bob@example.com")
	jacket := s.listing(alice, "Denim jacket")
	s.listing(bob, "Wool scarf")

	w := s.do(http.MethodPost, "/swaps", bob, map[string]string{"itemId": jacket.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	stats := decode[catalog.Stats](t, s.do(http.MethodGet, "/admin/stats", s.admin, nil))
	assert.EqualValues(t, 3, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.ApprovedItems)
	assert.EqualValues(t, 1, stats.PendingSwaps)
	assert.True(t, s.redis.Exists(utils.CacheStatsKey))

	w = s.do(http.MethodPost, "/admin/items/"+jacket.ID+"/moderation", s.admin, map[string]string{"action": "DELETE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, s.redis.Exists(utils.CacheStatsKey))

	stats = decode[catalog.Stats](t, s.do(http.MethodGet, "/admin/stats", s.admin, nil))
	assert.EqualValues(t, 1, stats.TotalItems)
	assert.EqualValues(t, 0, stats.TotalSwaps)

	w = s.do(http.MethodGet, "/items/"+jacket.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	swaps := decode[catalog.Page[domain.Swap]](t, s.do(http.MethodGet, "/admin/swaps?status=ALL", s.admin, nil))
	assert.Empty(t, swaps.Data)
}

func TestAdminDecidesAnySwap(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")
	_, bob := s.member("Bob", "bob@example.com")
	jacket := s.listing(alice, "Denim jacket")

	w := s.do(http.MethodPost, "/swaps", bob, map[string]string{"itemId": jacket.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	swap := decode[struct {
		Swap domain.Swap `json:"swap"`
	}](t, w).Swap

	w = s.do(http.MethodPost, "/admin/swaps/"+swap.ID+"/decision", s.admin, map[string]string{"decision": "REJECT"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cancelled := decode[catalog.Page[domain.Swap]](t, s.do(http.MethodGet, "/admin/swaps?status=CANCELLED", s.admin, nil))
	require.Len(t, cancelled.Data, 1)
	assert.Equal(t, swap.ID, cancelled.Data[0].ID)
}

func TestFeaturedItems(t *testing.T) {
	s := setupTestServer(t)
	_, alice := s.member("Alice", "alice@example.com")
	s.listing(alice, "Denim jacket")

	w := s.do(http.MethodGet, "/items/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]domain.Item](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "Denim jacket", items[0].Title)
	assert.True(t, s.redis.Exists(utils.CacheItemsPrefix+"featured"))
}

func TestReadRacingInvalidationIsNotCached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/items", nil)

	key := utils.CacheItemsPrefix + "browse:"
	serveCached(c, rdb, key, time.Minute, "browse items", func(ctx context.Context) ([]string, error) {
		invalidate(ctx, rdb) // a write commits while the read is in flight
		return []string{"stale"}, nil
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cacheMiss, w.Header().Get(cacheHeader))
	assert.False(t, mr.Exists(key))
}
