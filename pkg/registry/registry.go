// Package registry maps backend namespaces to their catalog providers. The
// registry is assembled once at startup through a Builder and is read-only
// afterward, so concurrent requests share it without locking.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bibliofed/bibliofed/pkg/ident"
	"github.com/bibliofed/bibliofed/pkg/provider"
)

var (
	// ErrDuplicateNamespace is returned when a namespace is registered
	// twice. Duplicate registration is a programming error in the startup
	// wiring, not a runtime condition to recover from.
	ErrDuplicateNamespace = errors.New("namespace already registered")

	// ErrInvalidNamespace is returned when a namespace is empty or
	// contains the identifier separator.
	ErrInvalidNamespace = errors.New("invalid namespace")
)

// Entry is one registered provider under its namespace.
type Entry struct {
	Namespace string
	Provider  provider.CatalogProvider
}

// Builder assembles a Registry. It is not safe for concurrent use; build the
// registry before serving begins.
type Builder struct {
	entries []Entry
	seen    map[string]struct{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// Register adds a provider under the given namespace. The namespace must be
// non-empty, must not contain the identifier separator, and must not already
// be registered.
func (b *Builder) Register(namespace string, p provider.CatalogProvider) error {
	if namespace == "" || strings.Contains(namespace, ident.Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}
	if p == nil {
		return fmt.Errorf("nil provider for namespace %q", namespace)
	}
	if _, dup := b.seen[namespace]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateNamespace, namespace)
	}
	b.seen[namespace] = struct{}{}
	b.entries = append(b.entries, Entry{Namespace: namespace, Provider: p})
	return nil
}

// Build returns the immutable registry. The Builder can keep registering
// afterward without affecting registries already built.
func (b *Builder) Build() *Registry {
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	byNamespace := make(map[string]provider.CatalogProvider, len(entries))
	for _, e := range entries {
		byNamespace[e.Namespace] = e.Provider
	}
	return &Registry{entries: entries, byNamespace: byNamespace}
}

// Registry is the immutable namespace-to-provider mapping shared by all
// concurrent requests.
type Registry struct {
	entries     []Entry
	byNamespace map[string]provider.CatalogProvider
}

// All returns every entry in registration order. The order is stable but
// carries no meaning; federated operations treat entries as commutative.
func (r *Registry) All() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Lookup returns the provider registered under namespace, if any.
func (r *Registry) Lookup(namespace string) (provider.CatalogProvider, bool) {
	p, ok := r.byNamespace[namespace]
	return p, ok
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.entries)
}
