package v1_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	v1 "github.com/bibliofed/bibliofed/internal/api/v1"
	"github.com/bibliofed/bibliofed/internal/service"
	"github.com/bibliofed/bibliofed/internal/service/mocks"
	"github.com/bibliofed/bibliofed/pkg/catalog"
	"github.com/bibliofed/bibliofed/pkg/ident"
	"github.com/bibliofed/bibliofed/pkg/provider"
)

// newTestServer creates a new test server with keep-alives disabled.
// This prevents flaky tests when running in parallel, as closing a server
// with keep-alives enabled can affect other tests sharing the HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

// searchStream builds a closed, pre-filled provider stream.
func searchStream(results ...provider.SearchResult) <-chan provider.SearchResult {
	ch := make(chan provider.SearchResult, len(results))
	for _, res := range results {
		ch <- res
	}
	close(ch)
	return ch
}

func entityWithISBN(isbn string) catalog.SearchEntity {
	return catalog.SearchEntity{
		Book: catalog.Book{ISBN: isbn, Title: "T", Author: "A", Publisher: "P"},
		HoldingSummaries: []catalog.HoldingSummary{
			{
				LibraryID:  "a:1",
				Location:   "shelf",
				CallNumber: "001",
				Status:     catalog.NewAvailable("on shelf", catalog.StatusCommon{RequestsAvailable: true}),
			},
		},
	}
}

func TestGetLibraries(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockResolverService(ctrl)
	svc.EXPECT().GetLibraries(gomock.Any()).Return([]catalog.Library{
		{ID: "a:1", Name: "Central", Coordinate: &catalog.Coordinate{Latitude: 37.48, Longitude: 127.03}},
		{ID: "a:2", Name: "Annex"},
		{ID: "b:1", Name: "East"},
	}, nil)

	server := newTestServer(v1.Router(svc))
	defer server.Close()

	resp, err := http.Get(server.URL + "/libraries")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body v1.LibrariesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Libraries, 3)

	for _, lib := range body.Libraries {
		assert.Equal(t, v1.ResolverID, lib.ResolverID)
	}
	require.NotNil(t, body.Libraries[0].Coordinate)
	assert.InDelta(t, 37.48, body.Libraries[0].Coordinate.Latitude, 1e-9)
	assert.Nil(t, body.Libraries[1].Coordinate)
}

func TestGetLibrariesBackendFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockResolverService(ctrl)
	svc.EXPECT().GetLibraries(gomock.Any()).Return(nil,
		&service.AdapterError{Namespace: "a", Err: errors.New("upstream down")})

	server := newTestServer(v1.Router(svc))
	defer server.Close()

	resp, err := http.Get(server.URL + "/libraries")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body v1.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "a")
}

func TestSearchRequiresTerm(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockResolverService(ctrl)

	server := newTestServer(v1.Router(svc))
	defer server.Close()

	resp, err := http.Get(server.URL + "/search")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchMalformedLibraryID(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockResolverService(ctrl)
	svc.EXPECT().Search(gomock.Any(), "foo", []string{"nosep"}).
		Return(nil, ident.ErrMalformedIdentifier)

	server := newTestServer(v1.Router(svc))
	defer server.Close()

	resp, err := http.Get(server.URL + "/search?term=foo&library_id=nosep")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchStreamsOneEntityPerLine(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockResolverService(ctrl)
	svc.EXPECT().Search(gomock.Any(), "foo", []string{"a:1", "b:9"}).Return(searchStream(
		provider.SearchResult{Entity: entityWithISBN("isbn-1")},
		provider.SearchResult{Entity: entityWithISBN("isbn-2")},
		provider.SearchResult{Entity: entityWithISBN("isbn-3")},
	), nil)

	server := newTestServer(v1.Router(svc))
	defer server.Close()

	resp, err := http.Get(server.URL + "/search?term=foo&library_id=a:1&library_id=b:9")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var isbns []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var envelope v1.SearchResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &envelope))
		require.Len(t, envelope.Entities, 1, "exactly one entity per envelope")
		isbns = append(isbns, envelope.Entities[0].Book.ISBN)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"isbn-1", "isbn-2", "isbn-3"}, isbns)
}

func TestSearchMidStreamFailureSeversConnection(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockResolverService(ctrl)
	svc.EXPECT().Search(gomock.Any(), "foo", gomock.Nil()).Return(searchStream(
		provider.SearchResult{Entity: entityWithISBN("isbn-1")},
		provider.SearchResult{Err: &service.AdapterError{Namespace: "a", Err: errors.New("mid-stream")}},
	), nil)

	server := newTestServer(v1.Router(svc))
	defer server.Close()

	resp, err := http.Get(server.URL + "/search?term=foo")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The stream must not end cleanly: the connection is severed so the
	// client cannot mistake the truncated stream for a complete one.
	_, err = io.ReadAll(resp.Body)
	require.Error(t, err)
}

func TestSystemRoutes(t *testing.T) {
	t.Parallel()

	t.Run("health", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		svc := mocks.NewMockResolverService(ctrl)
		server := newTestServer(v1.SystemRouter(svc))
		defer server.Close()

		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness ready", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		svc := mocks.NewMockResolverService(ctrl)
		svc.EXPECT().CheckReadiness(gomock.Any()).Return(nil)
		server := newTestServer(v1.SystemRouter(svc))
		defer server.Close()

		resp, err := http.Get(server.URL + "/readiness")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness not ready", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		svc := mocks.NewMockResolverService(ctrl)
		svc.EXPECT().CheckReadiness(gomock.Any()).Return(service.ErrNoProviders)
		server := newTestServer(v1.SystemRouter(svc))
		defer server.Close()

		resp, err := http.Get(server.URL + "/readiness")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("version", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		svc := mocks.NewMockResolverService(ctrl)
		server := newTestServer(v1.SystemRouter(svc))
		defer server.Close()

		resp, err := http.Get(server.URL + "/version")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Contains(t, body, "version")
		assert.Contains(t, body, "go_version")
	})
}

// Guard against the mock stream type assertion: the service contract hands
// the handler a receive-only channel, and the handler must drain it fully on
// the happy path so the merge goroutine can finish.
func TestSearchDrainsStream(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockResolverService(ctrl)

	results := make([]provider.SearchResult, 50)
	for i := range results {
		results[i] = provider.SearchResult{Entity: entityWithISBN("x")}
	}
	svc.EXPECT().Search(gomock.Any(), "foo", gomock.Nil()).Return(searchStream(results...), nil)

	server := newTestServer(v1.Router(svc))
	defer server.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/search?term=foo", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	count := 0
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		count++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 50, count)
}
