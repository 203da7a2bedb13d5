package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

// OrderItem is one line of an order: a single (game, platform) pair with the
// unit price captured at add-time. Subtotal is a stored generated column
// (qty * unit_price); the field is read-only on the Go side.
type OrderItem struct {
	ID                int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID           int64                   `gorm:"column:order_id;not null;index"`
	GameID            int64                   `gorm:"column:game_id;not null"`
	PlatformID        int64                   `gorm:"column:platform_id;not null"`
	Qty               int                     `gorm:"column:qty;not null;default:1"`
	UnitPrice         decimal.Decimal         `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Subtotal          decimal.Decimal         `gorm:"column:subtotal;type:numeric(10,2);->"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:text;not null;default:'pending'"`
	DeliveredToEmail  *string                 `gorm:"column:delivered_to_email"`
	DeliveredAt       *time.Time              `gorm:"column:delivered_at"`
	DeliveryNote      *string                 `gorm:"column:delivery_note"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
}
