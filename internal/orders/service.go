package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/enums"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies who is asking, so reads can enforce ownership.
type Actor struct {
	UserID int64
	Role   enums.UserRole
}

// Service defines the order query and admin operations.
type Service interface {
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	ListMine(ctx context.Context, userID int64, params pagination.Params) (*List, error)
	GetByID(ctx context.Context, orderID int64, actor Actor) (*Detail, error)
	Update(ctx context.Context, orderID int64, input UpdateInput) (*Detail, error)
	Cancel(ctx context.Context, orderID int64) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListMine(ctx context.Context, userID int64, params pagination.Params) (*List, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.List(ctx, params, Filters{UserID: &userID})
}

func (s *service) GetByID(ctx context.Context, orderID int64, actor Actor) (*Detail, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	detail, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if actor.Role != enums.UserRoleAdmin {
		if detail.Order.UserID == nil || *detail.Order.UserID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
	}
	return detail, nil
}

// Update applies a partial admin edit. A cancelled order is terminal: its
// status never transitions out.
func (s *service) Update(ctx context.Context, orderID int64, input UpdateInput) (*Detail, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *input.PaymentStatus))
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status == enums.OrderStatusCancelled &&
			input.Status != nil && *input.Status != enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled order cannot change status")
		}

		updates := map[string]any{}
		if input.Status != nil {
			updates["status"] = *input.Status
		}
		if input.PaymentStatus != nil {
			updates["payment_status"] = *input.PaymentStatus
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return detail, nil
}

// Cancel soft-cancels the order. Fulfillment is never reversed; issued keys
// stay issued.
func (s *service) Cancel(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCancelled {
			return nil
		}

		err = repo.UpdateOrder(ctx, orderID, map[string]any{"status": enums.OrderStatusCancelled})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		return nil
	})
}
