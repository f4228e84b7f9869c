// Package provider defines the capability contract every catalog backend
// integration must implement to be federated.
package provider

import (
	"context"

	"github.com/bibliofed/bibliofed/pkg/catalog"
)

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go CatalogProvider

// SearchResult is one item of a provider search stream. Either Entity or Err
// is meaningful: a result with a non-nil Err terminates the stream it arrived
// on, and no further results follow it.
type SearchResult struct {
	Entity catalog.SearchEntity
	Err    error
}

// CatalogProvider is the two-operation contract between the federation layer
// and one backend catalog integration.
//
// Implementations are expected to fail independently: the federation layer
// does not retry, and a failure from any provider fails the whole federated
// operation.
type CatalogProvider interface {
	// ListLibraries returns every library branch this provider serves.
	// Returned ids must already be namespaced with this provider's
	// namespace.
	ListLibraries(ctx context.Context) ([]catalog.Library, error)

	// Search streams matches for term, restricted to the given
	// provider-local library ids. An empty localIDs means no restriction:
	// search everything this provider serves.
	//
	// The returned channel is closed when the stream is done, whether it
	// completed, failed (one final result carrying Err), or was cancelled
	// through ctx. Implementations must observe ctx promptly; a cancelled
	// search must not leave work running unobserved.
	Search(ctx context.Context, term string, localIDs []string) <-chan SearchResult
}
