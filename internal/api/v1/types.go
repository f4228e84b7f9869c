package v1

// ResolverID identifies this resolver implementation in every library record
// it serves, regardless of which backend produced the record.
const ResolverID = "bibliofed-go"

// LibrariesResponse is the body of GET /api/v1/libraries.
type LibrariesResponse struct {
	Libraries []Library `json:"libraries"`
}

// Library is the wire shape of one library branch.
type Library struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	ResolverID string      `json:"resolver_id"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Coordinate is the wire shape of a geographic position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchResponse is one NDJSON envelope of the search stream. The shape
// allows batching but this implementation always sends exactly one entity per
// envelope.
type SearchResponse struct {
	Entities []SearchEntity `json:"entities"`
}

// SearchEntity is the wire shape of one search match.
type SearchEntity struct {
	Book             Book             `json:"book"`
	HoldingSummaries []HoldingSummary `json:"holding_summaries"`
}

// Book is the wire shape of a bibliographic record.
type Book struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	PublishDate *Date  `json:"publish_date,omitempty"`
}

// Date is a calendar date on the wire.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// DateTime is a date with optional time-of-day on the wire.
type DateTime struct {
	Date   Date `json:"date"`
	Hour   int  `json:"hour,omitempty"`
	Minute int  `json:"minute,omitempty"`
	Second int  `json:"second,omitempty"`
}

// HoldingSummary is the wire shape of one physical holding.
type HoldingSummary struct {
	LibraryID  string        `json:"library_id"`
	Location   string        `json:"location"`
	CallNumber string        `json:"call_number"`
	Status     HoldingStatus `json:"status"`
}

// HoldingStatus is the wire shape of the holding-status tagged union: exactly
// one of Available, OnLoan, or Unavailable is serialized.
type HoldingStatus struct {
	Available   *AvailableStatus   `json:"available,omitempty"`
	OnLoan      *OnLoanStatus      `json:"on_loan,omitempty"`
	Unavailable *UnavailableStatus `json:"unavailable,omitempty"`

	IsRequested       bool `json:"is_requested"`
	Requests          int  `json:"requests"`
	RequestsAvailable bool `json:"requests_available"`
}

// AvailableStatus is the available variant payload.
type AvailableStatus struct {
	Detail string `json:"detail"`
}

// OnLoanStatus is the on-loan variant payload.
type OnLoanStatus struct {
	Detail string    `json:"detail"`
	Due    *DateTime `json:"due,omitempty"`
}

// UnavailableStatus is the unavailable variant payload.
type UnavailableStatus struct {
	Detail string `json:"detail"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}
