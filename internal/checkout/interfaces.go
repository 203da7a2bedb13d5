package checkout

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
)

// Repository defines the persistence steps of the confirm orchestration. Every
// method runs against the transaction handed down by the service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDraftOrder(ctx context.Context, userID int64) (*models.Order, error)
	CountItems(ctx context.Context, orderID int64) (int64, error)
	CreateSnapshotOrder(ctx context.Context, order *models.Order) error
	CopyItems(ctx context.Context, fromOrderID, toOrderID int64, deliveredToEmail string) (int64, error)
	MarkItemsIssued(ctx context.Context, orderID int64, deliveredAt time.Time, note string) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	DeleteItems(ctx context.Context, orderID int64) error
	DeleteDraftGuarded(ctx context.Context, orderID int64) (bool, error)
}
