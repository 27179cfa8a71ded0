package reservations

import (
	"time"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	"github.com/hartfieldkennels/kennel-backend/pkg/pagination"
)

// ListFilters narrows the admin reservation listing.
type ListFilters struct {
	Status    *enums.ReservationStatus
	Provider  *enums.PaymentProvider
	StartDate *time.Time
	EndDate   *time.Time
}

// List is one page of reservations plus the unfiltered-page total.
type List struct {
	Items  []models.Reservation `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// OverrideParams carries one admin-forced status change.
type OverrideParams struct {
	Status enums.ReservationStatus
	Reason string
	Actor  string
}

func newList(items []models.Reservation, total int64, params pagination.Params) *List {
	if items == nil {
		items = []models.Reservation{}
	}
	return &List{
		Items:  items,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
}
