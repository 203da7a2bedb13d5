package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

// Repository defines persistence operations for the order query/admin surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	FindOrder(ctx context.Context, orderID int64) (*models.Order, error)
	FindDetail(ctx context.Context, orderID int64) (*Detail, error)
	UpdateOrder(ctx context.Context, orderID int64, updates map[string]any) error
}
