package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

// Order is the central aggregate. A pending order with no payment row is the
// user's draft cart; confirmed orders are append-only snapshots.
type Order struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        *int64              `gorm:"column:user_id"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null;default:0"`
	Notes         *string             `gorm:"column:notes"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID"`
	Payment       *Payment            `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
