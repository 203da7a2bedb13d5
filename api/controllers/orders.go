package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mirontsev/gamekeys-backend/api/middleware"
	"github.com/mirontsev/gamekeys-backend/api/responses"
	"github.com/mirontsev/gamekeys-backend/api/validators"
	internalorders "github.com/mirontsev/gamekeys-backend/internal/orders"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/logger"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

// ListMyOrders returns the caller's orders, newest first.
func ListMyOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetOrder returns one order with its lines and payment. Non-admin callers
// only see their own orders.
func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, _ := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
		detail, err := svc.GetByID(r.Context(), orderID, internalorders.Actor{UserID: userID, Role: role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminListOrders returns a paginated list of all orders, optionally filtered
// by user.
func AdminListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filterUserID, err := validators.ParseQueryInt64(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params, internalorders.Filters{UserID: filterUserID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type updateOrderRequest struct {
	Status        *string `json:"status" validate:"omitempty,min=1"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,min=1"`
	Notes         *string `json:"notes" validate:"omitempty,max=500"`
}

// AdminUpdateOrder applies a partial update to an order. Nil fields keep the
// stored values.
func AdminUpdateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Update(r.Context(), orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminCancelOrder soft-cancels an order. Issued keys stay issued.
func AdminCancelOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": orderID, "status": "cancelled"})
	}
}

func (p updateOrderRequest) toInput() (internalorders.UpdateInput, error) {
	var input internalorders.UpdateInput

	if p.Status != nil {
		status, err := enums.ParseOrderStatus(*p.Status)
		if err != nil {
			return internalorders.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	if p.PaymentStatus != nil {
		paymentStatus, err := enums.ParsePaymentStatus(*p.PaymentStatus)
		if err != nil {
			return internalorders.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
		}
		input.PaymentStatus = &paymentStatus
	}
	input.Notes = p.Notes

	return input, nil
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

	return pagination.Params{Limit: limit, Cursor: cursor}, nil
}
