// Package tenant routes requests to the right isolated database. The
// registry is the single source of truth mapping a tenant connection
// string to a live pool handle; the factory turns a handle into the
// tenant's domain stores.
package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Handle is a cached, reusable data-access handle bound to exactly one
// tenant connection string. Pools connect lazily; a bad connection string
// surfaces on first query, not at handle creation.
type Handle struct {
	connString string
	pool       *pgxpool.Pool

	mu       sync.Mutex
	lastUsed time.Time
}

// Pool returns the underlying connection pool.
func (h *Handle) Pool() *pgxpool.Pool {
	return h.pool
}

// ConnString returns the connection string this handle is bound to.
func (h *Handle) ConnString() string {
	return h.connString
}

// LastUsed returns when the handle was last returned from the registry.
func (h *Handle) LastUsed() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastUsed
}

func (h *Handle) touch() {
	h.mu.Lock()
	h.lastUsed = time.Now().UTC()
	h.mu.Unlock()
}

// Registry caches one handle per tenant connection string for the life of
// the process. Connection strings are compared by exact value: two
// distinct tenants never share a handle, and the same tenant never gets
// two live handles.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Handle returns the cached handle for connString, creating it on first
// use. The only construction error is an unparseable connection string;
// connect failures surface later on first query.
func (r *Registry) Handle(connString string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[connString]; ok {
		h.touch()
		return h, nil
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse tenant connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create tenant pool: %w", err)
	}

	h := &Handle{
		connString: connString,
		pool:       pool,
		lastUsed:   time.Now().UTC(),
	}
	r.handles[connString] = h
	return h, nil
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// DisconnectAll closes every outstanding handle concurrently and clears
// the map. Called once at process shutdown; any in-flight work holding an
// old handle fails on next use.
func (r *Registry) DisconnectAll() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*Handle)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			h.pool.Close()
		}(h)
	}
	wg.Wait()
}
