package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

type contextKey string

const (
	tenantIDKey    contextKey = "tenant_id"
	connStringKey  contextKey = "tenant_conn"
	keyPrefixKey   contextKey = "key_prefix"
	scopesKey      contextKey = "api_key_scopes"
	annotationsKey contextKey = "log_annotations"
)

// logAnnotations carries auth-derived fields back out to the access
// logger. Logger wraps Authenticate, so values the auth middleware adds
// to the request context are invisible to it; this mutable holder,
// seeded by Logger before the chain runs, bridges the gap.
type logAnnotations struct {
	mu        sync.Mutex
	tenantID  string
	keyPrefix string
}

func (a *logAnnotations) set(tenantID, keyPrefix string) {
	a.mu.Lock()
	a.tenantID = tenantID
	a.keyPrefix = keyPrefix
	a.mu.Unlock()
}

func (a *logAnnotations) snapshot() (tenantID, keyPrefix string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tenantID, a.keyPrefix
}

func withLogAnnotations(ctx context.Context) (context.Context, *logAnnotations) {
	a := &logAnnotations{}
	return context.WithValue(ctx, annotationsKey, a), a
}

// annotateRequest records the authenticated tenant for the access log.
// No-op when the logger did not seed the holder (direct handler tests).
func annotateRequest(ctx context.Context, tenantID uuid.UUID, keyPrefix string) {
	if a, ok := ctx.Value(annotationsKey).(*logAnnotations); ok {
		a.set(tenantID.String(), keyPrefix)
	}
}

func SetTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

func GetTenantID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(tenantIDKey).(uuid.UUID)
	return id, ok
}

// SetConnString stashes the authenticated tenant's database connection
// string. Handlers and enqueued jobs route through it; it must never
// appear in any response body.
func SetConnString(ctx context.Context, conn string) context.Context {
	return context.WithValue(ctx, connStringKey, conn)
}

func GetConnString(r *http.Request) (string, bool) {
	conn, ok := r.Context().Value(connStringKey).(string)
	return conn, ok
}

func setKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, keyPrefixKey, prefix)
}

func getKeyPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(keyPrefixKey).(string)
	return prefix, ok
}

func setScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, scopesKey, scopes)
}

func getScopes(r *http.Request) []string {
	scopes, _ := r.Context().Value(scopesKey).([]string)
	return scopes
}
