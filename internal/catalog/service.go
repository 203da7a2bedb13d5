package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mirontsev/gamekeys-backend/pkg/db/models"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

// Service exposes catalog reads and the pricing resolver used by the cart.
type Service interface {
	ResolvePrice(ctx context.Context, gameID int64, platformID *int64) (*PriceQuote, error)
	ListGames(ctx context.Context, params pagination.Params) (*GameList, error)
	GetGame(ctx context.Context, gameID int64) (*models.Game, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ResolvePrice answers "what does one key of this game on this platform cost".
// With no platform requested it falls back to the cheapest option, breaking
// price ties by platform name.
func (s *service) ResolvePrice(ctx context.Context, gameID int64, platformID *int64) (*PriceQuote, error) {
	if gameID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id required")
	}

	if _, err := s.repo.FindGame(ctx, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Game not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
	}

	options, err := s.repo.ListPlatformOptions(ctx, gameID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform options")
	}
	if len(options) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Game has no platforms configured")
	}

	if platformID != nil {
		for _, option := range options {
			if option.PlatformID == *platformID {
				return quoteFromOption(option), nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Incorrect game/platform pair")
	}

	return quoteFromOption(options[0]), nil
}

func (s *service) ListGames(ctx context.Context, params pagination.Params) (*GameList, error) {
	list, err := s.repo.ListGames(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list games")
	}
	return list, nil
}

func (s *service) GetGame(ctx context.Context, gameID int64) (*models.Game, error) {
	if gameID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game id required")
	}
	game, err := s.repo.FindGameWithPlatforms(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Game not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
	}
	return game, nil
}

func quoteFromOption(option PlatformOption) *PriceQuote {
	return &PriceQuote{
		PlatformID:   option.PlatformID,
		PlatformName: option.PlatformName,
		UnitPrice:    option.UnitPrice,
	}
}
