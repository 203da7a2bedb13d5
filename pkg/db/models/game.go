package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game is a sellable catalog entity. PriceFinal is the single source of
// truth for the current price; platforms carry no price override.
type Game struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Title           string          `gorm:"column:title;not null"`
	Description     *string         `gorm:"column:description"`
	CoverURL        *string         `gorm:"column:cover_url"`
	BasePrice       decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null;default:0"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	PriceFinal      decimal.Decimal `gorm:"column:price_final;type:numeric(10,2);not null;default:0"`
	Platforms       []Platform      `gorm:"many2many:game_platforms"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
