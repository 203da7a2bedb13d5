package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindGame(ctx context.Context, gameID int64) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Where("id = ?", gameID).
		First(&game).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *repository) FindGameWithPlatforms(ctx context.Context, gameID int64) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Preload("Platforms").
		Where("id = ?", gameID).
		First(&game).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *repository) ListPlatformOptions(ctx context.Context, gameID int64) ([]PlatformOption, error) {
	var options []PlatformOption
	err := r.db.WithContext(ctx).
		Table("game_platforms AS gp").
		Select("p.id AS platform_id, p.name AS platform_name, g.price_final AS unit_price").
		Joins("JOIN platforms p ON p.id = gp.platform_id").
		Joins("JOIN games g ON g.id = gp.game_id").
		Where("gp.game_id = ?", gameID).
		Order("unit_price ASC, platform_name ASC").
		Scan(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}

func (r *repository) ListGames(ctx context.Context, params pagination.Params) (*GameList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("games AS g").
		Select(`g.id, g.title, g.cover_url, g.base_price, g.discount_percent, g.price_final,
			array_agg(p.name ORDER BY p.name) FILTER (WHERE p.id IS NOT NULL) AS platforms,
			g.created_at`).
		Joins("LEFT JOIN game_platforms gp ON gp.game_id = g.id").
		Joins("LEFT JOIN platforms p ON p.id = gp.platform_id").
		Group("g.id").
		Order("g.created_at DESC, g.id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where("(g.created_at, g.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []GameSummary
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	list := &GameList{Games: rows}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) > pageSize {
		list.Games = rows[:pageSize]
		last := list.Games[pageSize-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}
