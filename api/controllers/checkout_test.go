package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hartfieldkennels/kennel-backend/internal/intake"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
)

type fakeIntakeService struct {
	order   *intake.Order
	err     error
	gotSlug string
}

func (f *fakeIntakeService) Checkout(_ context.Context, puppySlug string) (*intake.Order, error) {
	f.gotSlug = puppySlug
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func TestCheckoutReturnsOrder(t *testing.T) {
	svc := &fakeIntakeService{order: &intake.Order{
		OrderID:    "ORDER-1",
		Status:     "CREATED",
		ApproveURL: "https://www.sandbox.paypal.com/checkoutnow?token=ORDER-1",
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout",
		strings.NewReader(`{"puppy_slug":"luna-golden-retriever"}`))
	rec := httptest.NewRecorder()
	Checkout(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "luna-golden-retriever", svc.gotSlug)
	data := decodeData(t, rec)
	require.Equal(t, "ORDER-1", data["order_id"])
	require.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token=ORDER-1", data["approve_url"])
}

func TestCheckoutRequiresSlug(t *testing.T) {
	svc := &fakeIntakeService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	Checkout(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, svc.gotSlug)
}

func TestCheckoutSurfacesConflict(t *testing.T) {
	svc := &fakeIntakeService{err: pkgerrors.New(pkgerrors.CodeConflict, "conflict: unit is `sold` and cannot be reserved")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout",
		strings.NewReader(`{"puppy_slug":"luna-golden-retriever"}`))
	rec := httptest.NewRecorder()
	Checkout(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "conflict: unit is `sold` and cannot be reserved")
}
