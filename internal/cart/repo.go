package cart

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

// DraftConstraint is the partial unique index guarding one draft per user.
const DraftConstraint = "orders_one_draft_per_user"

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindDraftOrder returns the user's newest pending order with no payment row.
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

func (r *repository) CreateDraft(ctx context.Context, userID int64) (*models.Order, error) {
	order := &models.Order{
		UserID:        &userID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindItem(ctx context.Context, orderID, gameID, platformID int64) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND game_id = ? AND platform_id = ?", orderID, gameID, platformID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) InsertItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// DeleteItem removes one line; the order id predicate carries ownership, so a
// foreign item id simply deletes nothing.
func (r *repository) DeleteItem(ctx context.Context, orderID, itemID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Delete(&models.OrderItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteItems(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error
}

// RecalcTotal rewrites the stored order total from the line subtotals. Runs in
// the same transaction as the mutation that made it stale.
func (r *repository) RecalcTotal(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET total_amount = (SELECT COALESCE(SUM(subtotal), 0) FROM order_items WHERE order_id = ?),
		     updated_at = ?
		 WHERE id = ?`,
		orderID, time.Now().UTC(), orderID,
	).Error
}

func (r *repository) LoadCartLines(ctx context.Context, orderID int64) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(`oi.id AS item_id, oi.game_id, g.title AS game_title, g.cover_url,
			oi.platform_id, p.name AS platform_name,
			oi.qty, oi.unit_price, oi.subtotal`).
		Joins("JOIN games g ON g.id = oi.game_id").
		Joins("JOIN platforms p ON p.id = oi.platform_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.created_at ASC, oi.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
