// Package service implements the federation engine: the aggregate listing
// and streaming search operations over every registered catalog provider.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibliofed/bibliofed/pkg/catalog"
	"github.com/bibliofed/bibliofed/pkg/provider"
)

// ErrNoProviders is returned by CheckReadiness when the registry is empty.
var ErrNoProviders = errors.New("no catalog providers registered")

// AdapterError wraps a failure from one backend provider. The federation
// layer never downgrades it: any provider failure fails the whole federated
// operation.
type AdapterError struct {
	Namespace string
	Err       error
}

// Error returns the error message.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("provider %q: %v", e.Namespace, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go ResolverService

// ResolverService defines the interface for the federated resolver
// operations.
type ResolverService interface {
	// CheckReadiness checks if the resolver is ready to serve requests.
	CheckReadiness(ctx context.Context) error

	// GetLibraries lists every library across all registered providers.
	// All providers are queried concurrently; if any of them fails, the
	// whole call fails with an AdapterError and no partial result.
	GetLibraries(ctx context.Context) ([]catalog.Library, error)

	// Search streams matches for term across the providers referenced by
	// libraryIDs, merged first-ready-first-out. An empty libraryIDs means
	// no scoping restriction: every registered provider is searched.
	//
	// The returned channel closes when all provider streams complete, when
	// one of them fails (the failure arrives as the final SearchResult),
	// or when ctx is cancelled. A malformed library id fails the call
	// before any provider is invoked.
	Search(ctx context.Context, term string, libraryIDs []string) (<-chan provider.SearchResult, error)
}
