package models

import "time"

// Platform is a sellable variant dimension for a game ("Steam", "PS5").
type Platform struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// GamePlatform is the catalog join row. A game must have at least one link
// before it is sellable.
type GamePlatform struct {
	GameID     int64 `gorm:"column:game_id;primaryKey"`
	PlatformID int64 `gorm:"column:platform_id;primaryKey"`
}

// TableName keeps the join table shared with the many2many association.
func (GamePlatform) TableName() string {
	return "game_platforms"
}
