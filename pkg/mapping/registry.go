package mapping

import (
	"reflect"
	"sync"
	"sync/atomic"
)

type snapshot struct {
	byType   map[reflect.Type]Strategy
	wildcard Strategy
}

// Registry maps entity types to strategies.
//
// Reads load an immutable snapshot and never block. Registrations copy the
// current snapshot, change the copy and publish it, so a reader sees either
// the table before or after a registration, never a half-written one.
type Registry struct {
	mu       sync.Mutex
	current  atomic.Pointer[snapshot]
	fallback Strategy
}

// NewRegistry returns an empty registry whose fallback is a DefaultStrategy.
func NewRegistry() *Registry {
	return NewRegistryWithDefault(NewDefaultStrategy())
}

func NewRegistryWithDefault(fallback Strategy) *Registry {
	r := &Registry{fallback: fallback}
	r.current.Store(&snapshot{byType: map[reflect.Type]Strategy{}})
	return r
}

// Register binds s to t (pointers and proxies are normalized to the entity
// type). A later registration for the same type replaces the earlier one.
func (r *Registry) Register(t reflect.Type, s Strategy) {
	r.update(func(next *snapshot) {
		next.byType[EntityType(t)] = s
	})
}

// RegisterAny sets the strategy used for every type without its own
// registration, for searches that span several document shapes.
func (r *Registry) RegisterAny(s Strategy) {
	r.update(func(next *snapshot) {
		next.wildcard = s
	})
}

func (r *Registry) Unregister(t reflect.Type) {
	r.update(func(next *snapshot) {
		delete(next.byType, EntityType(t))
	})
}

func (r *Registry) update(fn func(next *snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.current.Load()
	next := &snapshot{
		byType:   make(map[reflect.Type]Strategy, len(prev.byType)+1),
		wildcard: prev.wildcard,
	}
	for k, v := range prev.byType {
		next.byType[k] = v
	}
	fn(next)
	r.current.Store(next)
}

// Resolve returns the strategy for t: its own registration, else the
// wildcard, else the default.
func (r *Registry) Resolve(t reflect.Type) Strategy {
	snap := r.current.Load()
	if t != nil {
		if s, ok := snap.byType[EntityType(t)]; ok {
			return s
		}
	}
	if snap.wildcard != nil {
		return snap.wildcard
	}
	return r.fallback
}

// Default is the strategy used when nothing else is registered.
func (r *Registry) Default() Strategy {
	return r.fallback
}

func (r *Registry) Len() int {
	return len(r.current.Load().byType)
}

// RegisterFor binds s to T.
func RegisterFor[T any](r *Registry, s Strategy) {
	r.Register(reflect.TypeOf((*T)(nil)).Elem(), s)
}

// ResolveFor returns the strategy for T.
func ResolveFor[T any](r *Registry) Strategy {
	return r.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}
