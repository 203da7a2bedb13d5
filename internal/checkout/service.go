package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/logger"
)

// Markers stamped on the confirmed order, matching the storefront's own wording.
const (
	orderNotesOnlinePayment = "Оплата онлайн"
	deliveryNoteAutoIssue   = "Автовыдача"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ConfirmInput carries the checkout request. Notes is accepted for forward
// compatibility and ignored: the snapshot always carries the online-payment marker.
type ConfirmInput struct {
	ContactEmail  string
	PaymentMethod string
	Notes         *string
}

// ConfirmResult reports the confirmed order back to the client.
type ConfirmResult struct {
	OrderID     int64           `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Service turns the user's draft into a fulfilled, paid order in one transaction.
type Service interface {
	Confirm(ctx context.Context, userID int64, input ConfirmInput) (*ConfirmResult, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a checkout service with the required dependencies. The
// logger is optional.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Confirm snapshots the draft into a fulfilled order, auto-issues the keys,
// records the captured payment and deletes the draft. Any failed step rolls
// back every other one.
func (s *service) Confirm(ctx context.Context, userID int64, input ConfirmInput) (*ConfirmResult, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	email := strings.TrimSpace(input.ContactEmail)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact email required")
	}
	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}

	result := &ConfirmResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		draft, err := repo.FindDraftOrder(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft order")
		}

		count, err := repo.CountItems(ctx, draft.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart lines")
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
		}

		notes := orderNotesOnlinePayment
		snapshot := &models.Order{
			UserID:        draft.UserID,
			Status:        enums.OrderStatusFulfilled,
			PaymentStatus: enums.PaymentStatusCaptured,
			TotalAmount:   draft.TotalAmount,
			Notes:         &notes,
		}
		if err := repo.CreateSnapshotOrder(ctx, snapshot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create confirmed order")
		}

		copied, err := repo.CopyItems(ctx, draft.ID, snapshot.ID, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "copy cart lines")
		}
		if copied != count {
			return pkgerrors.New(pkgerrors.CodeInternal, "Failed to move items")
		}

		if err := repo.MarkItemsIssued(ctx, snapshot.ID, time.Now().UTC(), deliveryNoteAutoIssue); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue keys")
		}

		payment := &models.Payment{
			OrderID:  snapshot.ID,
			Provider: method,
			Amount:   draft.TotalAmount,
			Status:   enums.PaymentStatusCaptured,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		// The draft may have gained a payment while the snapshot was built; it
		// is then no longer ours to delete. The confirmation still stands.
		deleted, err := repo.DeleteDraftGuarded(ctx, draft.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete draft order")
		}
		if deleted {
			if err := repo.DeleteItems(ctx, draft.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop draft lines")
			}
		} else if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, draft.ID), "draft changed during confirm, left in place")
		}

		result.OrderID = snapshot.ID
		result.TotalAmount = snapshot.TotalAmount
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, result.OrderID), "order confirmed")
	}
	return result, nil
}
