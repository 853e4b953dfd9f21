// Package registry implements the case-insensitive, one-shot-registration
// name→factory maps used for both matrix adapters and solver engines. A
// registry never stores constructed values, only factories, so that
// late/lazy registration never creates an import-order cycle between a
// provider package and its registrar.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// Factory constructs a fresh T. Returning an error lets individual
// registrations fail (e.g. a provider with no configured API key) without
// aborting the rest of the registry's startup.
type Factory[T any] func() (T, error)

// Registry is a concurrency-safe, case-insensitive string to Factory[T] map.
type Registry[T any] struct {
	mu       sync.RWMutex
	factories map[string]Factory[T]
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register binds name to factory. Fails if name is already bound (one-shot
// registration); the name is trimmed and lowercased before comparison.
func (r *Registry[T]) Register(name string, factory Factory[T]) error {
	key := normalize(name)
	if key == "" {
		return apperror.NewWithField(apperror.CodeInputInvalid, "registry: name must not be empty", "name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		return apperror.New(apperror.CodeConflict, fmt.Sprintf("registry: %q is already registered", name))
	}
	r.factories[key] = factory
	return nil
}

// Get resolves name to a freshly constructed T via its factory. Fails if the
// name is unknown.
func (r *Registry[T]) Get(name string) (T, error) {
	var zero T
	key := normalize(name)

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()

	if !ok {
		return zero, apperror.New(apperror.CodeResourceNotFound, fmt.Sprintf("registry: unknown name %q", name))
	}
	return factory()
}

// List returns the registered names in lexicographic order.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for k := range r.factories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalize(name)]
	return ok
}
