package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"kanban-auth/internal/model"
)

// BoardCache keeps each user's rendered board list in Redis. Entries are
// evicted on every board mutation, the TTL only bounds staleness after a
// failed eviction.
type BoardCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewBoardCache(client *redisv9.Client, ttl time.Duration) *BoardCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &BoardCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *BoardCache) GetBoards(ctx context.Context, userID uint) ([]model.Board, bool, error) {
	raw, err := c.client.Get(ctx, BoardsKey(userID)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get boards failed: %w", err)
	}

	boards, err := decodeBoards(raw)
	if err != nil {
		return nil, false, err
	}
	return boards, true, nil
}

func (c *BoardCache) SetBoards(ctx context.Context, userID uint, boards []model.Board) error {
	payload, err := encodeBoards(boards)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, BoardsKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set boards failed: %w", err)
	}
	return nil
}

func (c *BoardCache) DeleteBoards(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, BoardsKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete boards failed: %w", err)
	}
	return nil
}

func BoardsKey(userID uint) string {
	return fmt.Sprintf("kanban:boards:%d", userID)
}

// cachedBoard mirrors model.Board but keeps the owner id, which the public
// JSON shape hides.
type cachedBoard struct {
	ID        uint          `json:"id"`
	UserID    uint          `json:"user_id"`
	Name      string        `json:"name"`
	Columns   model.Columns `json:"columns"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func encodeBoards(boards []model.Board) ([]byte, error) {
	items := make([]cachedBoard, 0, len(boards))
	for _, b := range boards {
		items = append(items, cachedBoard(b))
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal boards cache failed: %w", err)
	}
	return payload, nil
}

func decodeBoards(raw []byte) ([]model.Board, error) {
	var items []cachedBoard
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cached boards failed: %w", err)
	}
	boards := make([]model.Board, 0, len(items))
	for _, item := range items {
		board := model.Board(item)
		board.Columns = board.Columns.Normalize()
		boards = append(boards, board)
	}
	return boards, nil
}
