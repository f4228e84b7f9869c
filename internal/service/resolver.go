package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	"github.com/bibliofed/bibliofed/internal/telemetry"
	"github.com/bibliofed/bibliofed/pkg/catalog"
	"github.com/bibliofed/bibliofed/pkg/ident"
	"github.com/bibliofed/bibliofed/pkg/logger"
	"github.com/bibliofed/bibliofed/pkg/provider"
	"github.com/bibliofed/bibliofed/pkg/registry"
)

const defaultSearchBuffer = 16

// ResolverOption configures the resolver.
type ResolverOption func(*resolver)

// WithSearchBuffer sets the capacity of the shared channel the streaming
// search merge writes into.
func WithSearchBuffer(n int) ResolverOption {
	return func(r *resolver) {
		if n > 0 {
			r.searchBuffer = n
		}
	}
}

// WithFederationMetrics attaches federation metrics. A nil value keeps
// metrics disabled.
func WithFederationMetrics(m *telemetry.FederationMetrics) ResolverOption {
	return func(r *resolver) {
		r.metrics = m
	}
}

// resolver implements ResolverService over an immutable provider registry.
// It holds no per-request state; one instance serves all requests.
type resolver struct {
	registry     *registry.Registry
	metrics      *telemetry.FederationMetrics
	searchBuffer int
}

// NewResolver creates the federated resolver over the given registry.
func NewResolver(reg *registry.Registry, opts ...ResolverOption) ResolverService {
	r := &resolver{
		registry:     reg,
		searchBuffer: defaultSearchBuffer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckReadiness reports whether the resolver can serve federated queries.
func (r *resolver) CheckReadiness(_ context.Context) error {
	if r.registry.Len() == 0 {
		return ErrNoProviders
	}
	return nil
}

// GetLibraries queries every registered provider concurrently and joins the
// results in registry order. The first provider failure cancels the
// remaining calls and fails the whole listing; siblings are always awaited,
// never leaked.
func (r *resolver) GetLibraries(ctx context.Context) ([]catalog.Library, error) {
	entries := r.registry.All()

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]catalog.Library, len(entries))
	for i, entry := range entries {
		g.Go(func() error {
			start := time.Now()
			libs, err := entry.Provider.ListLibraries(gctx)
			r.metrics.RecordProviderCall(ctx, entry.Namespace, "list_libraries", time.Since(start), err != nil)
			if err != nil {
				return &AdapterError{Namespace: entry.Namespace, Err: err}
			}
			r.metrics.RecordLibrariesListed(ctx, entry.Namespace, int64(len(libs)))
			results[i] = libs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var libraries []catalog.Library
	for _, libs := range results {
		libraries = append(libraries, libs...)
	}
	return libraries, nil
}

// selection is one provider chosen for a search, with its namespace-local
// scoping ids. Empty localIDs means no restriction within that provider.
type selection struct {
	entry    registry.Entry
	localIDs []string
}

// Search partitions the scoping ids by namespace, fans out to the selected
// providers, and merges their streams into one shared bounded channel,
// first-ready-first-out. See ResolverService for the full contract.
func (r *resolver) Search(ctx context.Context, term string, libraryIDs []string) (<-chan provider.SearchResult, error) {
	selections, err := r.partition(libraryIDs)
	if err != nil {
		return nil, err
	}

	searchID := uuid.NewString()
	logger.Debugf("search %s: term=%q providers=%d scoping_ids=%d",
		searchID, term, len(selections), len(libraryIDs))

	out := make(chan provider.SearchResult, r.searchBuffer)

	p := pool.New().WithContext(ctx)
	p.WithCancelOnError()
	p.WithFirstError()

	for _, sel := range selections {
		p.Go(func(ctx context.Context) (err error) {
			start := time.Now()
			var streamed int64
			defer func() {
				r.metrics.RecordProviderCall(ctx, sel.entry.Namespace, "search", time.Since(start), err != nil)
				r.metrics.RecordEntitiesStreamed(ctx, sel.entry.Namespace, streamed)
			}()
			stream := sel.entry.Provider.Search(ctx, term, sel.localIDs)
			for res := range stream {
				if res.Err != nil {
					return &AdapterError{Namespace: sel.entry.Namespace, Err: res.Err}
				}
				select {
				case out <- res:
					streamed++
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		defer close(out)
		if err := p.Wait(); err != nil && ctx.Err() == nil {
			logger.Errorf("search %s failed: %v", searchID, err)
			// Forward the failure as the final stream item. The consumer
			// may have gone away without cancelling; don't block on it.
			select {
			case out <- provider.SearchResult{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// partition derives the provider selections for a search. Ids whose
// namespace is not registered select nothing (logged, not an error); a
// malformed id fails the whole search. An empty id set selects every
// registered provider with no local restriction.
func (r *resolver) partition(libraryIDs []string) ([]selection, error) {
	entries := r.registry.All()

	if len(libraryIDs) == 0 {
		selections := make([]selection, 0, len(entries))
		for _, entry := range entries {
			selections = append(selections, selection{entry: entry})
		}
		return selections, nil
	}

	localByNamespace := make(map[string][]string)
	for _, id := range libraryIDs {
		namespace, err := ident.Namespace(id)
		if err != nil {
			return nil, fmt.Errorf("library id %q: %w", id, err)
		}
		if _, ok := r.registry.Lookup(namespace); !ok {
			logger.Debugf("dropping scoping id %q: no provider for namespace %q", id, namespace)
			continue
		}
		localByNamespace[namespace] = append(localByNamespace[namespace], ident.StripPrefix(id, namespace))
	}

	var selections []selection
	for _, entry := range entries {
		if localIDs, ok := localByNamespace[entry.Namespace]; ok {
			selections = append(selections, selection{entry: entry, localIDs: localIDs})
		}
	}
	return selections, nil
}
