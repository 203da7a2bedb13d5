package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.id, o.user_id, u.email AS user_email, o.status, o.payment_status, o.total_amount,
			(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count,
			o.created_at`).
		Joins("LEFT JOIN users u ON u.id = o.user_id").
		Order("o.created_at DESC, o.id DESC").
		Limit(limit)

	if filters.UserID != nil {
		query = query.Where("o.user_id = ?", *filters.UserID)
	}
	if cursor != nil {
		query = query.Where("(o.created_at, o.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []Summary
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{Orders: rows}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		list.Orders = rows[:pageSize]
		last := list.Orders[pageSize-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindDetail(ctx context.Context, orderID int64) (*Detail, error) {
	order, err := r.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Order: *order}

	if order.UserID != nil {
		var email string
		err := r.db.WithContext(ctx).
			Table("users").
			Select("email").
			Where("id = ?", *order.UserID).
			Scan(&email).Error
		if err != nil {
			return nil, err
		}
		if email != "" {
			detail.UserEmail = &email
		}
	}

	err = r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(`oi.id AS item_id, oi.game_id, g.title AS game_title,
			oi.platform_id, p.name AS platform_name,
			oi.qty, oi.unit_price, oi.subtotal, oi.fulfillment_status,
			oi.delivered_to_email, oi.delivered_at, oi.delivery_note`).
		Joins("JOIN games g ON g.id = oi.game_id").
		Joins("JOIN platforms p ON p.id = oi.platform_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.created_at ASC, oi.id ASC").
		Scan(&detail.Items).Error
	if err != nil {
		return nil, err
	}

	var payment models.Payment
	err = r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		First(&payment).Error
	switch {
	case err == nil:
		detail.Payment = &payment
	case errors.Is(err, gorm.ErrRecordNotFound):
		// draft or unpaid order, no payment row to show
	default:
		return nil, err
	}

	return detail, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
