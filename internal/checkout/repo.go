package checkout

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindDraftOrder(ctx context.Context, userID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusPending).
		Where("NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = orders.id)").
		Order("created_at DESC, id DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CountItems(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateSnapshotOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CopyItems moves the draft lines onto the snapshot order in a single
// INSERT ... SELECT, stamping the delivery email on every copy.
func (r *repository) CopyItems(ctx context.Context, fromOrderID, toOrderID int64, deliveredToEmail string) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO order_items
		   (order_id, game_id, platform_id, qty, unit_price, fulfillment_status, delivered_to_email, created_at)
		 SELECT ?, game_id, platform_id, qty, unit_price, ?, ?, ?
		 FROM order_items
		 WHERE order_id = ?`,
		toOrderID, enums.FulfillmentStatusPending, deliveredToEmail, time.Now().UTC(), fromOrderID,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) MarkItemsIssued(ctx context.Context, orderID int64, deliveredAt time.Time, note string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE order_items
		 SET fulfillment_status = ?, delivered_at = ?, delivery_note = ?
		 WHERE order_id = ?`,
		enums.FulfillmentStatusIssued, deliveredAt, note, orderID,
	).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) DeleteItems(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error
}

// DeleteDraftGuarded removes the draft only while it is still pending and
// unpaid. Anything else deletes nothing and reports false.
func (r *repository) DeleteDraftGuarded(ctx context.Context, orderID int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM orders
		 WHERE id = ? AND status = ?
		   AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = orders.id)`,
		orderID, enums.OrderStatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
