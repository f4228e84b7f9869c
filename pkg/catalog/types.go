// Package catalog defines the entity model shared by every catalog provider
// and the federation layer: libraries, books, and holding availability.
package catalog

// Coordinate is a geographic position of a library branch.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Library is one branch of a catalog provider's network. The ID is globally
// unique and namespaced (see pkg/ident). A nil Coordinate means the provider
// does not publish a location for this branch.
type Library struct {
	ID         string
	Name       string
	Coordinate *Coordinate
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateTime is a date with an optional time-of-day component. Providers that
// only publish day-granularity due dates leave the time fields zero.
type DateTime struct {
	Date   Date
	Hour   int
	Minute int
	Second int
}

// Book is the bibliographic record attached to a search match.
type Book struct {
	ISBN        string
	Title       string
	Author      string
	Publisher   string
	PublishDate *Date
}

// HoldingSummary describes one physical holding of a book: which branch owns
// it, where it is shelved, and whether it can be borrowed right now.
type HoldingSummary struct {
	LibraryID  string
	Location   string
	CallNumber string
	Status     HoldingStatus
}

// SearchEntity is one match produced by a provider search: a book plus the
// holdings that matched. Entities are transient; they exist only for the
// duration of the search response that produced them.
type SearchEntity struct {
	Book             Book
	HoldingSummaries []HoldingSummary
}
