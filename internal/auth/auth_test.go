package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/core"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)

	assert.NoError(t, h.Compare(hash, "pw123"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), core.ErrInvalidCredentials)
	assert.Equal(t, core.KindInternal, core.KindOf(h.Compare("not-a-hash", "pw123")))

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewHasherFallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}

func TestNewTokenIsRandomUUID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := NewToken()
		require.NoError(t, err)
		parsed, err := uuid.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
		_, dup := seen[token]
		require.False(t, dup, "token collision")
		seen[token] = struct{}{}
	}
}

func TestNewSession(t *testing.T) {
	now := time.Now()
	s, err := NewSession(7, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.AccountID)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	forever, err := NewSession(7, 0, now)
	require.NoError(t, err)
	assert.True(t, forever.ExpiresAt.IsZero())
	assert.NotEqual(t, s.Token, forever.Token)
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(10)

	s, err := NewSession(1, time.Hour, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.AccountID)

	_, err = store.Get(ctx, "unknown")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	require.NoError(t, store.Invalidate(ctx, s.Token))
	_, err = store.Get(ctx, s.Token)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	assert.NoError(t, store.Invalidate(ctx, s.Token), "invalidate is idempotent")

	assert.Error(t, store.Put(ctx, core.Session{AccountID: 1}))
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(10)

	expired := core.Session{Token: "old", AccountID: 1, ExpiresAt: time.Now().Add(-time.Second)}
	live := core.Session{Token: "new", AccountID: 2, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Put(ctx, expired))
	require.NoError(t, store.Put(ctx, live))

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	require.NoError(t, store.Put(ctx, core.Session{Token: "stale", AccountID: 3, ExpiresAt: time.Now().Add(-time.Minute)}))
	assert.Equal(t, 1, store.CleanExpired())
	assert.Equal(t, 1, store.Size())
}

func TestMemorySessionStoreEvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(2)
	for _, token := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put(ctx, core.Session{Token: token, AccountID: 1}))
	}
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = store.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"Bearer a b", "", false},
	}
	for _, tc := range cases {
		token, ok := BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, "header %q", tc.header)
		assert.Equal(t, tc.token, token, "header %q", tc.header)
	}
}

type failingStore struct{ SessionStore }

func (failingStore) Get(context.Context, string) (core.Session, error) {
	return core.Session{}, errors.New("redis down")
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(10)
	session := core.Session{Token: "tok", AccountID: 42, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Put(ctx, session))

	var seen int64
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := AccountIDFromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewGuard(store, nil).Middleware(protected)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(42), seen)
	})

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Token tok",
		"unknown token":  "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid session"}`, rec.Body.String())
		})
	}

	t.Run("store failure reaches onFail", func(t *testing.T) {
		var got error
		g := NewGuard(failingStore{}, func(w http.ResponseWriter, _ *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusInternalServerError)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		g.Middleware(protected).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, core.KindInternal, core.KindOf(got))
	})
}

func TestAccountIDFromContextWithoutSession(t *testing.T) {
	_, ok := AccountIDFromContext(context.Background())
	assert.False(t, ok)
}
