package seoulseocho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliofed/bibliofed/pkg/catalog"
	"github.com/bibliofed/bibliofed/pkg/provider"
)

// newTestServer creates a new test server with keep-alives disabled.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

const libraryInfoFixture = `{
	"contents": {
		"libList": [
			{"manageCode": "ALL", "libName": "전체"},
			{"manageCode": "MA", "libName": "서초중앙도서관"},
			{"manageCode": "MB", "libName": "반포도서관"}
		]
	}
}`

func searchFixture(books ...map[string]any) string {
	payload := map[string]any{
		"contents": map[string]any{"bookList": books},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func bookFixture(overrides map[string]any) map[string]any {
	book := map[string]any{
		"isbn":              "9788901234567",
		"originalTitle":     "어떤 책",
		"originalAuthor":    "아무개",
		"originalPublisher": "출판사",
		"manageCode":        "MA",
		"regCodeDesc":       "종합자료실",
		"callNo":            "813.7",
		"loanStatus":        "대출가능",
		"workingStatus":     "비치중",
		"returnPlanDate":    "",
		"reservationCount":  0,
		"isActiveResvYn":    "Y",
	}
	for k, v := range overrides {
		book[k] = v
	}
	return book
}

func collect(t *testing.T, stream <-chan provider.SearchResult) ([]catalog.SearchEntity, error) {
	t.Helper()
	var out []catalog.SearchEntity
	for res := range stream {
		if res.Err != nil {
			return out, res.Err
		}
		out = append(out, res.Entity)
	}
	return out, nil
}

func TestListLibraries(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/common/libraryInfo", r.URL.Path)
		_, _ = w.Write([]byte(libraryInfoFixture))
	}))
	defer server.Close()

	p := New(WithBaseURL(server.URL))
	libs, err := p.ListLibraries(context.Background())
	require.NoError(t, err)

	// The "ALL" pseudo-branch is not a library
	require.Len(t, libs, 2)
	assert.Equal(t, "seoul-seocho:MA", libs[0].ID)
	assert.Equal(t, "서초중앙도서관", libs[0].Name)
	assert.Equal(t, "seoul-seocho:MB", libs[1].ID)
}

func TestListLibrariesUpstreamError(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := New(WithBaseURL(server.URL))
	_, err := p.ListLibraries(context.Background())
	require.Error(t, err)
}

func TestSearchMapsBooksAndScopesRequest(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(searchFixture(
			bookFixture(nil),
			bookFixture(map[string]any{
				"isbn":           "9788909999999",
				"manageCode":     "MB",
				"loanStatus":     "대출불가",
				"workingStatus":  "대출중",
				"returnPlanDate": "2024.03.15",
			}),
			bookFixture(map[string]any{
				"isbn":          "9788908888888",
				"loanStatus":    "대출불가(예약중)",
				"workingStatus": "정리중",
			}),
		)))
	}))
	defer server.Close()

	p := New(WithBaseURL(server.URL))
	got, err := collect(t, p.Search(context.Background(), "한강", []string{"MA", "MB"}))
	require.NoError(t, err)

	assert.Equal(t, "한강", gotBody["searchKeyword"])
	assert.Equal(t, []any{"MA", "MB"}, gotBody["manageCode"])

	require.Len(t, got, 3)

	// available
	first := got[0]
	assert.Equal(t, "9788901234567", first.Book.ISBN)
	require.Len(t, first.HoldingSummaries, 1)
	assert.Equal(t, "seoul-seocho:MA", first.HoldingSummaries[0].LibraryID)
	_, ok := first.HoldingSummaries[0].Status.Available()
	assert.True(t, ok)

	// on loan with due date
	loan, ok := got[1].HoldingSummaries[0].Status.OnLoan()
	require.True(t, ok)
	require.NotNil(t, loan.Due)
	assert.Equal(t, catalog.Date{Year: 2024, Month: 3, Day: 15}, loan.Due.Date)
	assert.Equal(t, "seoul-seocho:MB", got[1].HoldingSummaries[0].LibraryID)

	// not loanable, not out on loan either
	_, ok = got[2].HoldingSummaries[0].Status.Unavailable()
	assert.True(t, ok)
}

func TestSearchEmptyScopeSendsEmptyArray(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(searchFixture()))
	}))
	defer server.Close()

	p := New(WithBaseURL(server.URL))
	got, err := collect(t, p.Search(context.Background(), "term", nil))
	require.NoError(t, err)

	assert.Empty(t, got)
	assert.Equal(t, []any{}, gotBody["manageCode"], "upstream expects an array, not null")
}

func TestSearchUnparsableDueDateFailsStream(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchFixture(
			bookFixture(map[string]any{
				"loanStatus":     "대출불가",
				"workingStatus":  "대출중",
				"returnPlanDate": "soon",
			}),
		)))
	}))
	defer server.Close()

	p := New(WithBaseURL(server.URL))
	_, err := collect(t, p.Search(context.Background(), "term", nil))
	require.Error(t, err)
}

func TestSearchUpstreamFailureFailsStream(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := New(WithBaseURL(server.URL))
	_, err := collect(t, p.Search(context.Background(), "term", nil))
	require.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		overrides  map[string]any
		wantOnLoan bool
		wantAvail  bool
	}{
		{
			name:      "available",
			overrides: nil,
			wantAvail: true,
		},
		{
			name: "interlibrary loan counts as on loan",
			overrides: map[string]any{
				"loanStatus":     "대출불가",
				"workingStatus":  "상호대차중",
				"returnPlanDate": "2024.12.01",
			},
			wantOnLoan: true,
		},
		{
			name: "unloanable without loan working status",
			overrides: map[string]any{
				"loanStatus":    "대출불가",
				"workingStatus": "소독중",
			},
		},
		{
			name: "unrecognized loan status",
			overrides: map[string]any{
				"loanStatus": "상태불명",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(bookFixture(tt.overrides))
			require.NoError(t, err)
			var book bookRecord
			require.NoError(t, json.Unmarshal(data, &book))

			status, err := parseStatus(book)
			require.NoError(t, err)

			_, avail := status.Available()
			_, loan := status.OnLoan()
			_, unavail := status.Unavailable()

			assert.Equal(t, tt.wantAvail, avail)
			assert.Equal(t, tt.wantOnLoan, loan)
			assert.Equal(t, !tt.wantAvail && !tt.wantOnLoan, unavail)
		})
	}
}

func TestParseStatusCommonFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(bookFixture(map[string]any{
		"reservationCount": 3,
		"isActiveResvYn":   "N",
	}))
	require.NoError(t, err)
	var book bookRecord
	require.NoError(t, json.Unmarshal(data, &book))

	status, err := parseStatus(book)
	require.NoError(t, err)

	common := status.Common()
	assert.True(t, common.IsRequested)
	assert.Equal(t, 3, common.Requests)
	assert.False(t, common.RequestsAvailable)
}

func TestParseDue(t *testing.T) {
	t.Parallel()

	due, err := parseDue("2024.03.15")
	require.NoError(t, err)
	assert.Equal(t, catalog.Date{Year: 2024, Month: 3, Day: 15}, due.Date)

	_, err = parseDue("2024-03-15")
	require.Error(t, err)

	_, err = parseDue("")
	require.Error(t, err)
}
