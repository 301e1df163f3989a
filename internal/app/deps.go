package app

import (
	"context"
	"log/slog"

	"kanban-auth/internal/model"
)

type EventPublisher interface {
	Publish(ctx context.Context, event model.AccountEvent) error
}

type BoardCache interface {
	GetBoards(ctx context.Context, userID uint) ([]model.Board, bool, error)
	SetBoards(ctx context.Context, userID uint, boards []model.Board) error
	DeleteBoards(ctx context.Context, userID uint) error
}

// evictBoards drops the cached board list of userID. Failures are logged; the
// TTL bounds how long a stale list can survive.
func evictBoards(ctx context.Context, cache BoardCache, logger *slog.Logger, userID uint) {
	if cache == nil {
		return
	}
	if err := cache.DeleteBoards(ctx, userID); err != nil {
		logger.WarnContext(ctx, "evict board cache failed", "user_id", userID, "error", err)
	}
}
