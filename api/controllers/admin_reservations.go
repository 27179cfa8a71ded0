package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hartfieldkennels/kennel-backend/api/middleware"
	"github.com/hartfieldkennels/kennel-backend/api/responses"
	"github.com/hartfieldkennels/kennel-backend/api/validators"
	"github.com/hartfieldkennels/kennel-backend/internal/reservations"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/pagination"
)

type overrideRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ReservationList returns one filtered page of reservations.
func ReservationList(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := listFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.FromQuery(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ReservationGet returns one reservation by id.
func ReservationGet(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := reservationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reservation, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

// ReservationOverride forces a reservation into the requested status. The
// acting operator comes from the session, never from the body.
func ReservationOverride(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := reservationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req overrideRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseReservationStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reservation status"))
			return
		}

		reservation, err := svc.Override(r.Context(), id, reservations.OverrideParams{
			Status: status,
			Reason: req.Reason,
			Actor:  middleware.OperatorEmailFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

// ReservationCancel is a shorthand override to the cancelled status.
func ReservationCancel(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := reservationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req cancelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservation, err := svc.Override(r.Context(), id, reservations.OverrideParams{
			Status: enums.ReservationStatusCancelled,
			Reason: req.Reason,
			Actor:  middleware.OperatorEmailFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

// ReservationDelete removes a reservation record outright.
func ReservationDelete(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := reservationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id, middleware.OperatorEmailFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ReservationMismatches lists pending reservations that carry an external
// payment id but have no webhook ledger row, meaning the gateway either
// never delivered the payment event or its delivery silently failed.
func ReservationMismatches(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := pagination.FromQuery(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
		page, err := svc.Mismatches(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func reservationID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "reservationId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reservation id")
	}
	return id, nil
}

func listFiltersFromQuery(r *http.Request) (reservations.ListFilters, error) {
	var filters reservations.ListFilters
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseReservationStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("provider")); raw != "" {
		provider, err := enums.ParsePaymentProvider(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider filter")
		}
		filters.Provider = &provider
	}
	start, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start_date")
	}
	filters.StartDate = start
	end, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end_date")
	}
	filters.EndDate = end
	return filters, nil
}

// parseDateParam accepts RFC3339 timestamps or bare dates.
func parseDateParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
