package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// KeySource names a request header carrying the API key.
type KeySource struct {
	Header string
	Scheme string // "Bearer", etc. (optional)
}

// DefaultSources accepts "Authorization: Bearer <key>" and "X-API-Key".
// Query parameters are not accepted; URLs end up in access logs.
var DefaultSources = []KeySource{
	{Header: "Authorization", Scheme: "Bearer"},
	{Header: "X-API-Key"},
}

// Middleware rejects requests without a valid operator key.
type Middleware struct {
	store   KeyStore
	sources []KeySource
	logger  *slog.Logger
}

// NewMiddleware creates the middleware. Nil sources means DefaultSources.
func NewMiddleware(store KeyStore, sources []KeySource) *Middleware {
	if sources == nil {
		sources = DefaultSources
	}
	return &Middleware{
		store:   store,
		sources: sources,
		logger:  slog.Default().With("component", "auth"),
	}
}

// Handle wraps next with API key authentication.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op, err := m.store.Validate(m.extractKey(r))
		if err != nil {
			m.logger.Warn("request rejected",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="vesta"`)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		m.logger.Debug("request authenticated", "operator", op.Name, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), operatorKey, op)))
	})
}

func (m *Middleware) extractKey(r *http.Request) string {
	for _, source := range m.sources {
		value := r.Header.Get(source.Header)
		if value == "" {
			continue
		}
		if source.Scheme == "" {
			return value
		}
		if key, ok := strings.CutPrefix(value, source.Scheme+" "); ok {
			return key
		}
	}
	return ""
}

type contextKey string

const operatorKey contextKey = "operator"

// OperatorFromContext returns the operator authenticated for a request.
func OperatorFromContext(ctx context.Context) (*Operator, bool) {
	op, ok := ctx.Value(operatorKey).(*Operator)
	return op, ok
}
