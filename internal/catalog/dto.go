package catalog

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PlatformOption is one purchasable (platform, price) pair for a game.
// Price comes from the game's final price; ordering is price asc, name asc.
type PlatformOption struct {
	PlatformID   int64           `gorm:"column:platform_id"`
	PlatformName string          `gorm:"column:platform_name"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price"`
}

// PriceQuote is the resolved pricing answer handed to the cart.
type PriceQuote struct {
	PlatformID   int64           `json:"platform_id"`
	PlatformName string          `json:"platform_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// GameSummary exposes the aggregated fields returned in the public game list.
type GameSummary struct {
	ID              int64           `gorm:"column:id" json:"id"`
	Title           string          `gorm:"column:title" json:"title"`
	CoverURL        *string         `gorm:"column:cover_url" json:"cover_url,omitempty"`
	BasePrice       decimal.Decimal `gorm:"column:base_price" json:"base_price"`
	DiscountPercent int             `gorm:"column:discount_percent" json:"discount_percent"`
	PriceFinal      decimal.Decimal `gorm:"column:price_final" json:"price_final"`
	Platforms       pq.StringArray  `gorm:"column:platforms;type:text[]" json:"platforms"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"created_at"`
}

// GameList wraps the paginated games plus the next page cursor.
type GameList struct {
	Games      []GameSummary `json:"games"`
	NextCursor string        `json:"next_cursor,omitempty"`
}
