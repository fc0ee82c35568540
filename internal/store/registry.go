// Package store implements the path -> bound data/index store registry
// (spec.md §4.2) plus an in-memory reference DataStore/IndexStore pair
// used by the core's own tests and by cmd/bench.
package store

import (
	"sort"
	"sync"

	"github.com/icydb/icykv"
)

// Handle binds one entity path to its Data and Index stores.
type Handle struct {
	Data  icykv.DataStore
	Index icykv.IndexStore
}

// Registry maps store path -> Handle. Its mutex guards registration,
// lookup and traversal of the path map; WithData/WithIndex take closures
// so no caller can retain a live reference past the call, and the
// closures run after the mutex is released (spec.md §4.2, §5 "Shared
// resources").
type Registry struct {
	mu     sync.Mutex
	stores map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Handle)}
}

// RegisterStore binds path to the given data/index pair. Registering the
// same path twice is an InvariantViolation, never a silent overwrite.
func (r *Registry) RegisterStore(path string, data icykv.DataStore, index icykv.IndexStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[path]; ok {
		return icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginStore,
			"store already registered").WithDetail("path", path)
	}
	r.stores[path] = Handle{Data: data, Index: index}
	return nil
}

// TryGetStore returns the Handle bound to path, or an Internal-classified
// error (spec.md §4.2: a missing registration is always a caller/wiring
// bug, not a data-layer fact).
func (r *Registry) TryGetStore(path string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.stores[path]
	if !ok {
		return Handle{}, icykv.NewInternalError(icykv.ClassInternal, icykv.OriginStore,
			"store not registered").WithDetail("path", path)
	}
	return h, nil
}

// WithData runs fn with the DataStore bound to path. The registry's
// mutex is held only for the path lookup, not while fn runs.
func (r *Registry) WithData(path string, fn func(icykv.DataStore) error) error {
	h, err := r.TryGetStore(path)
	if err != nil {
		return err
	}
	return fn(h.Data)
}

// WithIndex runs fn with the IndexStore bound to path.
func (r *Registry) WithIndex(path string, fn func(icykv.IndexStore) error) error {
	h, err := r.TryGetStore(path)
	if err != nil {
		return err
	}
	return fn(h.Index)
}

// PathHandle pairs a store path with its Handle, returned by Iterate in
// path-sorted order so diagnostics are deterministic.
type PathHandle struct {
	Path   string
	Handle Handle
}

// Iterate returns every registered (path, handle) pair sorted by path.
func (r *Registry) Iterate() []PathHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PathHandle, 0, len(r.stores))
	for p, h := range r.stores {
		out = append(out, PathHandle{Path: p, Handle: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ClearAll empties every registered store's contents without
// unregistering the paths. Iteration order here is native map order
// since this is a set-semantic bulk operation (spec.md §4.2).
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.stores {
		h.Data.Clear()
		h.Index.Clear()
	}
}
