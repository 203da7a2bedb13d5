package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

// Filters describe the inputs supported by the order list.
type Filters struct {
	UserID *int64
}

// Summary exposes the aggregated fields returned in the order list.
type Summary struct {
	ID            int64               `gorm:"column:id" json:"id"`
	UserID        *int64              `gorm:"column:user_id" json:"user_id,omitempty"`
	UserEmail     *string             `gorm:"column:user_email" json:"user_email,omitempty"`
	Status        enums.OrderStatus   `gorm:"column:status" json:"status"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status" json:"payment_status"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount" json:"total_amount"`
	ItemCount     int                 `gorm:"column:item_count" json:"item_count"`
	CreatedAt     time.Time           `gorm:"column:created_at" json:"created_at"`
}

// List wraps the paginated orders plus the next page cursor.
type List struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ItemDetail is one order line joined with its game and platform names.
type ItemDetail struct {
	ItemID            int64                   `gorm:"column:item_id" json:"item_id"`
	GameID            int64                   `gorm:"column:game_id" json:"game_id"`
	GameTitle         string                  `gorm:"column:game_title" json:"game_title"`
	PlatformID        int64                   `gorm:"column:platform_id" json:"platform_id"`
	PlatformName      string                  `gorm:"column:platform_name" json:"platform_name"`
	Qty               int                     `gorm:"column:qty" json:"qty"`
	UnitPrice         decimal.Decimal         `gorm:"column:unit_price" json:"unit_price"`
	Subtotal          decimal.Decimal         `gorm:"column:subtotal" json:"subtotal"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status" json:"fulfillment_status"`
	DeliveredToEmail  *string                 `gorm:"column:delivered_to_email" json:"delivered_to_email,omitempty"`
	DeliveredAt       *time.Time              `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	DeliveryNote      *string                 `gorm:"column:delivery_note" json:"delivery_note,omitempty"`
}

// Detail is a single order with its lines and payment.
type Detail struct {
	Order     models.Order    `json:"order"`
	UserEmail *string         `json:"user_email,omitempty"`
	Items     []ItemDetail    `json:"items"`
	Payment   *models.Payment `json:"payment,omitempty"`
}

// UpdateInput carries the admin's partial update. Nil fields keep the stored value.
type UpdateInput struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Notes         *string
}
