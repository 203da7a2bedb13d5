package controllers

import (
	"net/http"

	"github.com/mirontsev/gamekeys-backend/api/middleware"
	"github.com/mirontsev/gamekeys-backend/api/responses"
	"github.com/mirontsev/gamekeys-backend/api/validators"
	"github.com/mirontsev/gamekeys-backend/internal/checkout"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/logger"
)

type confirmOrderRequest struct {
	ContactEmail  string  `json:"contactEmail" validate:"required,email"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	Notes         *string `json:"notes" validate:"omitempty,max=500"`
}

// ConfirmOrder turns the caller's draft into a fulfilled, paid order.
func ConfirmOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload confirmOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), userID, checkout.ConfirmInput{
			ContactEmail:  payload.ContactEmail,
			PaymentMethod: payload.PaymentMethod,
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
