package cart

import "github.com/shopspring/decimal"

// NoticeAlreadyInCart is returned when a duplicate (game, platform) add is a no-op.
const NoticeAlreadyInCart = "already_in_cart"

// Line is one joined cart row as shown to the user.
type Line struct {
	ItemID       int64           `gorm:"column:item_id" json:"item_id"`
	GameID       int64           `gorm:"column:game_id" json:"game_id"`
	GameTitle    string          `gorm:"column:game_title" json:"game_title"`
	CoverURL     *string         `gorm:"column:cover_url" json:"cover_url,omitempty"`
	PlatformID   int64           `gorm:"column:platform_id" json:"platform_id"`
	PlatformName string          `gorm:"column:platform_name" json:"platform_name"`
	Qty          int             `gorm:"column:qty" json:"qty"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price" json:"unit_price"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal" json:"subtotal"`
}

// Cart is the user's draft order projected for display; every cart endpoint
// answers with this shape. Count sums the line quantities. Total is recomputed
// from the lines at read time; the stored order total must always agree.
// Notice is set only when a duplicate add was a no-op.
type Cart struct {
	OrderID *int64          `json:"order_id,omitempty"`
	Items   []Line          `json:"items"`
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Notice  string          `json:"notice,omitempty"`
}

// AddItemInput carries the add-to-cart request. Quantity above one is accepted
// and capped: digital keys are sold one per line.
type AddItemInput struct {
	GameID     int64
	PlatformID *int64
	Quantity   int
}
