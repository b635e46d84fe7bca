package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Guard rejects requests that do not carry a valid bearer token and puts the
// resolved session into the request context.
type Guard struct {
	sessions SessionStore
	onFail   func(http.ResponseWriter, *http.Request, error)
}

// NewGuard builds a Guard. onFail renders the rejection; nil writes a JSON
// 401 body.
func NewGuard(sessions SessionStore, onFail func(http.ResponseWriter, *http.Request, error)) *Guard {
	if onFail == nil {
		onFail = writeUnauthorized
	}
	return &Guard{sessions: sessions, onFail: onFail}
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

		token, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			logger.DebugContext(ctx, "Missing or malformed bearer token", log.FieldPath, r.URL.Path)
			g.onFail(w, r, core.ErrUnauthenticated)
			return
		}

		session, err := g.sessions.Get(ctx, token)
		if err != nil {
			if core.KindOf(err) == core.KindInternal {
				logger.ErrorContext(ctx, "Session lookup failed", log.FieldError, err)
			} else {
				logger.DebugContext(ctx, "Unknown or expired session", log.FieldPath, r.URL.Path)
			}
			g.onFail(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, session)))
	})
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func WithSession(ctx context.Context, s core.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func SessionFromContext(ctx context.Context) (core.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(core.Session)
	return s, ok
}

// AccountIDFromContext returns the account resolved by the Guard.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return 0, false
	}
	return s.AccountID, true
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request, _ error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": core.ErrUnauthenticated.Message})
}
