package v1

import (
	"github.com/bibliofed/bibliofed/pkg/catalog"
)

// convertLibrary maps an internal library to its wire shape, tagging it with
// this resolver's identity. An absent coordinate stays absent on the wire; it
// is never serialized as a zeroed position.
func convertLibrary(lib catalog.Library) Library {
	out := Library{
		ID:         lib.ID,
		Name:       lib.Name,
		ResolverID: ResolverID,
	}
	if lib.Coordinate != nil {
		out.Coordinate = &Coordinate{
			Latitude:  lib.Coordinate.Latitude,
			Longitude: lib.Coordinate.Longitude,
		}
	}
	return out
}

func convertEntity(e catalog.SearchEntity) SearchEntity {
	summaries := make([]HoldingSummary, 0, len(e.HoldingSummaries))
	for _, s := range e.HoldingSummaries {
		summaries = append(summaries, HoldingSummary{
			LibraryID:  s.LibraryID,
			Location:   s.Location,
			CallNumber: s.CallNumber,
			Status:     convertStatus(s.Status),
		})
	}
	return SearchEntity{
		Book:             convertBook(e.Book),
		HoldingSummaries: summaries,
	}
}

func convertBook(b catalog.Book) Book {
	out := Book{
		ISBN:      b.ISBN,
		Title:     b.Title,
		Author:    b.Author,
		Publisher: b.Publisher,
	}
	if b.PublishDate != nil {
		out.PublishDate = &Date{
			Year:  b.PublishDate.Year,
			Month: b.PublishDate.Month,
			Day:   b.PublishDate.Day,
		}
	}
	return out
}

func convertStatus(s catalog.HoldingStatus) HoldingStatus {
	common := s.Common()
	out := HoldingStatus{
		IsRequested:       common.IsRequested,
		Requests:          common.Requests,
		RequestsAvailable: common.RequestsAvailable,
	}
	if v, ok := s.Available(); ok {
		out.Available = &AvailableStatus{Detail: v.Detail}
	} else if v, ok := s.OnLoan(); ok {
		loan := &OnLoanStatus{Detail: v.Detail}
		if v.Due != nil {
			loan.Due = &DateTime{
				Date: Date{
					Year:  v.Due.Date.Year,
					Month: v.Due.Date.Month,
					Day:   v.Due.Date.Day,
				},
				Hour:   v.Due.Hour,
				Minute: v.Due.Minute,
				Second: v.Due.Second,
			}
		}
		out.OnLoan = loan
	} else if v, ok := s.Unavailable(); ok {
		out.Unavailable = &UnavailableStatus{Detail: v.Detail}
	}
	return out
}
