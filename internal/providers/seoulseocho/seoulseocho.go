// Package seoulseocho integrates the Seoul Seocho public library network as
// a catalog provider.
package seoulseocho

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bibliofed/bibliofed/pkg/catalog"
	"github.com/bibliofed/bibliofed/pkg/httpclient"
	"github.com/bibliofed/bibliofed/pkg/ident"
	"github.com/bibliofed/bibliofed/pkg/provider"
)

// Namespace is the identifier prefix owned by this provider.
const Namespace = "seoul-seocho"

const (
	defaultBaseURL = "https://public.seocholib.or.kr"

	// allBranchesCode is a pseudo-branch the upstream lists alongside real
	// branches; it is not a library.
	allBranchesCode = "ALL"
)

// Upstream status strings. The API reports loan state in Korean.
const (
	loanStatusAvailable         = "대출가능"
	loanStatusUnavailablePrefix = "대출불가"
	workingStatusOnLoan         = "대출중"
	workingStatusInterlibrary   = "상호대차중"
)

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL overrides the upstream endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.base = strings.TrimSuffix(baseURL, "/")
	}
}

// WithClient overrides the HTTP client.
func WithClient(c httpclient.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// Provider implements provider.CatalogProvider against the Seocho public
// library API.
type Provider struct {
	base   string
	client httpclient.Client
}

// New creates the provider with the default upstream endpoint and client.
func New(opts ...Option) *Provider {
	p := &Provider{
		base:   defaultBaseURL,
		client: httpclient.NewDefaultClient(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type libraryInfoResponse struct {
	Contents struct {
		LibList []struct {
			ManageCode string `json:"manageCode"`
			LibName    string `json:"libName"`
		} `json:"libList"`
	} `json:"contents"`
}

// ListLibraries fetches the branch list. The upstream's "ALL" pseudo-branch
// is skipped.
func (p *Provider) ListLibraries(ctx context.Context) ([]catalog.Library, error) {
	var root libraryInfoResponse
	if err := p.client.GetJSON(ctx, p.base+"/api/common/libraryInfo", &root); err != nil {
		return nil, fmt.Errorf("library info request failed: %w", err)
	}

	libraries := make([]catalog.Library, 0, len(root.Contents.LibList))
	for _, lib := range root.Contents.LibList {
		if lib.ManageCode == allBranchesCode {
			continue
		}
		libraries = append(libraries, catalog.Library{
			ID:   ident.Compose(Namespace, lib.ManageCode),
			Name: lib.LibName,
		})
	}
	return libraries, nil
}

type searchRequest struct {
	SearchKeyword string   `json:"searchKeyword"`
	ManageCode    []string `json:"manageCode"`
}

type searchResponse struct {
	Contents struct {
		BookList []bookRecord `json:"bookList"`
	} `json:"contents"`
}

type bookRecord struct {
	ISBN              string `json:"isbn"`
	OriginalTitle     string `json:"originalTitle"`
	OriginalAuthor    string `json:"originalAuthor"`
	OriginalPublisher string `json:"originalPublisher"`
	ManageCode        string `json:"manageCode"`
	RegCodeDesc       string `json:"regCodeDesc"`
	CallNo            string `json:"callNo"`
	LoanStatus        string `json:"loanStatus"`
	WorkingStatus     string `json:"workingStatus"`
	ReturnPlanDate    string `json:"returnPlanDate"`
	ReservationCount  int    `json:"reservationCount"`
	IsActiveResvYn    string `json:"isActiveResvYn"`
}

// Search posts one search request and streams the matches. The upstream
// returns the full result set in one response, so the stream pace here is
// ours, but consumers see the same incremental contract as with paged
// backends.
func (p *Provider) Search(ctx context.Context, term string, localIDs []string) <-chan provider.SearchResult {
	out := make(chan provider.SearchResult)

	go func() {
		defer close(out)

		if localIDs == nil {
			// The upstream expects an array, not null
			localIDs = []string{}
		}
		req := searchRequest{SearchKeyword: term, ManageCode: localIDs}

		var root searchResponse
		if err := p.client.PostJSON(ctx, p.base+"/api/search", req, &root); err != nil {
			emit(ctx, out, provider.SearchResult{Err: fmt.Errorf("search request failed: %w", err)})
			return
		}

		for _, book := range root.Contents.BookList {
			entity, err := buildEntity(book)
			if err != nil {
				emit(ctx, out, provider.SearchResult{Err: err})
				return
			}
			if !emit(ctx, out, provider.SearchResult{Entity: entity}) {
				return
			}
		}
	}()

	return out
}

// emit sends one result unless the search was cancelled. Reports whether the
// send happened.
func emit(ctx context.Context, out chan<- provider.SearchResult, res provider.SearchResult) bool {
	select {
	case out <- res:
		return true
	case <-ctx.Done():
		return false
	}
}

func buildEntity(book bookRecord) (catalog.SearchEntity, error) {
	status, err := parseStatus(book)
	if err != nil {
		return catalog.SearchEntity{}, err
	}
	return catalog.SearchEntity{
		Book: catalog.Book{
			ISBN:      book.ISBN,
			Title:     book.OriginalTitle,
			Author:    book.OriginalAuthor,
			Publisher: book.OriginalPublisher,
		},
		HoldingSummaries: []catalog.HoldingSummary{
			{
				LibraryID:  ident.Compose(Namespace, book.ManageCode),
				Location:   book.RegCodeDesc,
				CallNumber: book.CallNo,
				Status:     status,
			},
		},
	}, nil
}

func parseStatus(book bookRecord) (catalog.HoldingStatus, error) {
	common := catalog.StatusCommon{
		IsRequested:       book.ReservationCount > 0,
		Requests:          book.ReservationCount,
		RequestsAvailable: book.IsActiveResvYn == "Y",
	}

	if book.LoanStatus == loanStatusAvailable {
		return catalog.NewAvailable(book.WorkingStatus, common), nil
	}

	if strings.HasPrefix(book.LoanStatus, loanStatusUnavailablePrefix) {
		switch book.WorkingStatus {
		case workingStatusOnLoan, workingStatusInterlibrary:
			due, err := parseDue(book.ReturnPlanDate)
			if err != nil {
				return catalog.HoldingStatus{}, fmt.Errorf("holding %s: %w", book.CallNo, err)
			}
			return catalog.NewOnLoan(book.WorkingStatus, due, common), nil
		}
	}

	return catalog.NewUnavailable(book.WorkingStatus, common), nil
}

// parseDue parses the upstream's dotted return date ("2024.03.15").
func parseDue(due string) (*catalog.DateTime, error) {
	parts := strings.Split(due, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("unparsable return date %q", due)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("unparsable return date %q: %w", due, err)
		}
		nums[i] = n
	}
	return &catalog.DateTime{
		Date: catalog.Date{Year: nums[0], Month: nums[1], Day: nums[2]},
	}, nil
}
