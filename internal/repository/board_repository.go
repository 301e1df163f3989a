package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"kanban-auth/internal/model"
)

// BoardRepository always scopes reads and writes by owner: a board that
// belongs to someone else looks exactly like a missing one.
type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	if err := r.db.WithContext(ctx).Create(board).Error; err != nil {
		return fmt.Errorf("create board failed: %w", translate(err))
	}
	return nil
}

func (r *BoardRepository) ListByUserID(ctx context.Context, userID uint) ([]model.Board, error) {
	var boards []model.Board
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("list boards failed: %w", err)
	}
	return boards, nil
}

func (r *BoardRepository) GetByIDAndUserID(ctx context.Context, boardID, userID uint) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", boardID, userID).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get board failed: %w", err)
	}
	return &board, nil
}

// Update writes name, columns and updated_at of board.
func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	err := r.db.WithContext(ctx).
		Model(&model.Board{}).
		Where("id = ? AND user_id = ?", board.ID, board.UserID).
		Updates(map[string]any{
			"name":         board.Name,
			"columns_data": board.Columns,
			"updated_at":   board.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("update board failed: %w", err)
	}
	return nil
}

func (r *BoardRepository) UpdateColumns(ctx context.Context, boardID, userID uint, columns model.Columns, updatedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Board{}).
		Where("id = ? AND user_id = ?", boardID, userID).
		Updates(map[string]any{
			"columns_data": columns,
			"updated_at":   updatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("update board columns failed: %w", err)
	}
	return nil
}

func (r *BoardRepository) DeleteByIDAndUserID(ctx context.Context, boardID, userID uint) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", boardID, userID).Delete(&model.Board{}).Error; err != nil {
		return fmt.Errorf("delete board failed: %w", err)
	}
	return nil
}

func (r *BoardRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Board{}).Error; err != nil {
		return fmt.Errorf("delete boards of user failed: %w", err)
	}
	return nil
}
