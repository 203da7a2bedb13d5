package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

// Payment records the simulated capture for a confirmed order. Its mere
// existence is what distinguishes a confirmed order from a draft cart.
type Payment struct {
	ID        int64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64               `gorm:"column:order_id;not null;index"`
	Provider  string              `gorm:"column:provider;not null"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Status    enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
