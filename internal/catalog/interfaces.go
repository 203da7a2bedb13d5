package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

// Repository defines read operations over the games catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindGame(ctx context.Context, gameID int64) (*models.Game, error)
	FindGameWithPlatforms(ctx context.Context, gameID int64) (*models.Game, error)
	ListPlatformOptions(ctx context.Context, gameID int64) ([]PlatformOption, error)
	ListGames(ctx context.Context, params pagination.Params) (*GameList, error)
}
