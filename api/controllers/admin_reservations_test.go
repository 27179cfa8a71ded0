package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hartfieldkennels/kennel-backend/api/middleware"
	"github.com/hartfieldkennels/kennel-backend/internal/reservations"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	"github.com/hartfieldkennels/kennel-backend/pkg/pagination"
)

type fakeReservationService struct {
	list        *reservations.List
	reservation *models.Reservation
	err         error

	gotFilters  reservations.ListFilters
	gotParams   pagination.Params
	gotID       uuid.UUID
	gotOverride reservations.OverrideParams
	gotActor    string
	deleted     bool
}

func (f *fakeReservationService) Get(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	f.gotID = id
	return f.reservation, f.err
}

func (f *fakeReservationService) List(_ context.Context, params pagination.Params, filters reservations.ListFilters) (*reservations.List, error) {
	f.gotParams = params
	f.gotFilters = filters
	return f.list, f.err
}

func (f *fakeReservationService) Mismatches(_ context.Context, params pagination.Params) (*reservations.List, error) {
	f.gotParams = params
	return f.list, f.err
}

func (f *fakeReservationService) Override(_ context.Context, id uuid.UUID, params reservations.OverrideParams) (*models.Reservation, error) {
	f.gotID = id
	f.gotOverride = params
	if f.err != nil {
		return nil, f.err
	}
	return f.reservation, nil
}

func (f *fakeReservationService) Delete(_ context.Context, id uuid.UUID, actor string) error {
	f.gotID = id
	f.gotActor = actor
	f.deleted = true
	return f.err
}

func adminRouter(svc reservations.Service) http.Handler {
	logg := testLogger()
	r := chi.NewRouter()
	r.Get("/reservations", ReservationList(svc, logg))
	r.Get("/reservations/mismatches", ReservationMismatches(svc, logg))
	r.Get("/reservations/{reservationId}", ReservationGet(svc, logg))
	r.Patch("/reservations/{reservationId}/status", ReservationOverride(svc, logg))
	r.Post("/reservations/{reservationId}/cancel", ReservationCancel(svc, logg))
	r.Delete("/reservations/{reservationId}", ReservationDelete(svc, logg))
	return r
}

func asOperator(req *http.Request, email string) *http.Request {
	ctx := middleware.WithOperator(req.Context(), uuid.NewString(), email)
	return req.WithContext(ctx)
}

func TestReservationListParsesFilters(t *testing.T) {
	svc := &fakeReservationService{list: &reservations.List{Items: []models.Reservation{}}}
	req := httptest.NewRequest(http.MethodGet,
		"/reservations?status=paid&provider=paypal&start_date=2026-08-01&end_date=2026-08-31T23:59:59Z&limit=25&offset=50", nil)
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 25, svc.gotParams.Limit)
	require.Equal(t, 50, svc.gotParams.Offset)
	require.Equal(t, enums.ReservationStatusPaid, *svc.gotFilters.Status)
	require.Equal(t, enums.PaymentProviderPayPal, *svc.gotFilters.Provider)
	require.Equal(t, "2026-08-01", svc.gotFilters.StartDate.Format("2006-01-02"))
	require.Equal(t, 23, svc.gotFilters.EndDate.Hour())
}

func TestReservationListRejectsUnknownStatus(t *testing.T) {
	svc := &fakeReservationService{}
	req := httptest.NewRequest(http.MethodGet, "/reservations?status=limbo", nil)
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid status filter")
}

func TestReservationGetRejectsMalformedID(t *testing.T) {
	svc := &fakeReservationService{}
	req := httptest.NewRequest(http.MethodGet, "/reservations/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid reservation id")
}

func TestReservationOverrideUsesSessionActor(t *testing.T) {
	id := uuid.New()
	svc := &fakeReservationService{reservation: &models.Reservation{ID: id}}
	req := httptest.NewRequest(http.MethodPatch, "/reservations/"+id.String()+"/status",
		strings.NewReader(`{"status":"cancelled","reason":"buyer backed out over the phone"}`))
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, asOperator(req, "admin@hartfieldkennels.com"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, id, svc.gotID)
	require.Equal(t, enums.ReservationStatusCancelled, svc.gotOverride.Status)
	require.Equal(t, "buyer backed out over the phone", svc.gotOverride.Reason)
	require.Equal(t, "admin@hartfieldkennels.com", svc.gotOverride.Actor)
}

func TestReservationOverrideRejectsUnknownStatus(t *testing.T) {
	id := uuid.New()
	svc := &fakeReservationService{}
	req := httptest.NewRequest(http.MethodPatch, "/reservations/"+id.String()+"/status",
		strings.NewReader(`{"status":"limbo","reason":"some reason"}`))
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid reservation status")
}

func TestReservationCancelForcesCancelledStatus(t *testing.T) {
	id := uuid.New()
	svc := &fakeReservationService{reservation: &models.Reservation{ID: id}}
	req := httptest.NewRequest(http.MethodPost, "/reservations/"+id.String()+"/cancel",
		strings.NewReader(`{"reason":"litter pulled from sale"}`))
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, asOperator(req, "admin@hartfieldkennels.com"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, enums.ReservationStatusCancelled, svc.gotOverride.Status)
	require.Equal(t, "litter pulled from sale", svc.gotOverride.Reason)
	require.Equal(t, "admin@hartfieldkennels.com", svc.gotOverride.Actor)
}

func TestReservationDelete(t *testing.T) {
	id := uuid.New()
	svc := &fakeReservationService{}
	req := httptest.NewRequest(http.MethodDelete, "/reservations/"+id.String(), nil)
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, asOperator(req, "admin@hartfieldkennels.com"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.deleted)
	require.Equal(t, id, svc.gotID)
	require.Equal(t, "admin@hartfieldkennels.com", svc.gotActor)
}

func TestReservationMismatches(t *testing.T) {
	svc := &fakeReservationService{list: &reservations.List{Items: []models.Reservation{}, Limit: 50}}
	req := httptest.NewRequest(http.MethodGet, "/reservations/mismatches", nil)
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pagination.DefaultLimit, svc.gotParams.Limit)
}
