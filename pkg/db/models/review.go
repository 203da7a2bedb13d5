package models

import "time"

// Review is a user's rating of a game. One review per (user, game).
type Review struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:reviews_user_game_key"`
	GameID    int64     `gorm:"column:game_id;not null;uniqueIndex:reviews_user_game_key"`
	Rating    int       `gorm:"column:rating;not null"`
	Body      *string   `gorm:"column:body"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
