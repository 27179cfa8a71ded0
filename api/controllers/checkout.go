package controllers

import (
	"net/http"

	"github.com/hartfieldkennels/kennel-backend/api/responses"
	"github.com/hartfieldkennels/kennel-backend/api/validators"
	"github.com/hartfieldkennels/kennel-backend/internal/intake"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

type checkoutRequest struct {
	PuppySlug string `json:"puppy_slug" validate:"required"`
}

// Checkout opens a deposit order for one puppy and stakes the pending
// reservation. The response carries the gateway approval URL the
// storefront redirects the buyer to.
func Checkout(svc intake.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), req.PuppySlug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
