package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/internal/catalog"
	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
)

// Repository defines persistence operations for the draft order acting as a cart.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDraftOrder(ctx context.Context, userID int64) (*models.Order, error)
	CreateDraft(ctx context.Context, userID int64) (*models.Order, error)
	FindItem(ctx context.Context, orderID, gameID, platformID int64) (*models.OrderItem, error)
	InsertItem(ctx context.Context, item *models.OrderItem) error
	DeleteItem(ctx context.Context, orderID, itemID int64) (bool, error)
	DeleteItems(ctx context.Context, orderID int64) error
	RecalcTotal(ctx context.Context, orderID int64) error
	LoadCartLines(ctx context.Context, orderID int64) ([]Line, error)
}

// PriceResolver answers what a single key costs before a line enters the cart.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, gameID int64, platformID *int64) (*catalog.PriceQuote, error)
}
