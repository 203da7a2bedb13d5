package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db"
	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the cart operations over the user's draft order. Every
// method answers with the full cart payload.
type Service interface {
	GetCart(ctx context.Context, userID int64) (*Cart, error)
	AddItem(ctx context.Context, userID int64, input AddItemInput) (*Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*Cart, error)
	ClearCart(ctx context.Context, userID int64) (*Cart, error)
}

type service struct {
	repo    Repository
	pricing PriceResolver
	tx      txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, pricing PriceResolver, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if pricing == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, pricing: pricing, tx: tx}, nil
}

// GetCart projects the draft order for display. A user with no draft gets the
// empty cart shape, never an error.
func (s *service) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	draft, err := s.repo.FindDraftOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft order")
	}

	return cartPayload(ctx, s.repo, draft.ID)
}

// AddItem resolves the price, then inserts the line and recalculates the total
// in one transaction. A duplicate (game, platform) pair is a no-op notice.
func (s *service) AddItem(ctx context.Context, userID int64, input AddItemInput) (*Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	quote, err := s.pricing.ResolvePrice(ctx, input.GameID, input.PlatformID)
	if err != nil {
		return nil, err
	}

	var cart *Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		draft, err := s.findOrCreateDraft(ctx, repo, userID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItem(ctx, draft.ID, input.GameID, quote.PlatformID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing line")
		}
		if existing != nil {
			// One key per line. The line stays as it is.
			cart, err = cartPayload(ctx, repo, draft.ID)
			if err != nil {
				return err
			}
			cart.Notice = NoticeAlreadyInCart
			return nil
		}

		item := &models.OrderItem{
			OrderID:           draft.ID,
			GameID:            input.GameID,
			PlatformID:        quote.PlatformID,
			Qty:               1,
			UnitPrice:         quote.UnitPrice,
			FulfillmentStatus: enums.FulfillmentStatusPending,
		}
		if err := repo.InsertItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart line")
		}

		if err := repo.RecalcTotal(ctx, draft.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate total")
		}

		cart, err = cartPayload(ctx, repo, draft.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes one line from the user's draft. An unknown or foreign
// item id deletes nothing and reports the unchanged cart.
func (s *service) RemoveItem(ctx context.Context, userID, itemID int64) (*Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	var cart *Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		draft, err := repo.FindDraftOrder(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cart = emptyCart()
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft order")
		}

		deleted, err := repo.DeleteItem(ctx, draft.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}
		if deleted {
			if err := repo.RecalcTotal(ctx, draft.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate total")
			}
		}

		cart, err = cartPayload(ctx, repo, draft.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart drops every line from the user's draft.
func (s *service) ClearCart(ctx context.Context, userID int64) (*Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cart *Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		draft, err := repo.FindDraftOrder(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cart = emptyCart()
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft order")
		}

		if err := repo.DeleteItems(ctx, draft.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}
		if err := repo.RecalcTotal(ctx, draft.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate total")
		}

		cart, err = cartPayload(ctx, repo, draft.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// findOrCreateDraft races the partial unique index: a concurrent create loses
// the insert and refetches the winner's draft.
func (s *service) findOrCreateDraft(ctx context.Context, repo Repository, userID int64) (*models.Order, error) {
	draft, err := repo.FindDraftOrder(ctx, userID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft order")
	}

	draft, err = repo.CreateDraft(ctx, userID)
	if err != nil {
		if db.IsUniqueViolation(err, DraftConstraint) || db.IsUniqueViolation(err, "") {
			draft, err = repo.FindDraftOrder(ctx, userID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refetch draft order")
			}
			return draft, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create draft order")
	}
	return draft, nil
}

func emptyCart() *Cart {
	return &Cart{Items: []Line{}, Total: decimal.Zero}
}

func cartPayload(ctx context.Context, repo Repository, orderID int64) (*Cart, error) {
	lines, err := repo.LoadCartLines(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}
	if lines == nil {
		lines = []Line{}
	}

	count := 0
	total := decimal.Zero
	for _, line := range lines {
		count += line.Qty
		total = total.Add(line.Subtotal)
	}

	return &Cart{OrderID: &orderID, Items: lines, Count: count, Total: total}, nil
}
