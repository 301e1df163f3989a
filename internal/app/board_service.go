package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"kanban-auth/internal/model"
	"kanban-auth/internal/repository"
)

type BoardService struct {
	store      *repository.Store
	boardCache BoardCache
	logger     *slog.Logger
}

type CreateBoardInput struct {
	UserID  uint
	Name    string
	Columns model.Columns
}

// UpdateBoardInput changes only the fields that are non-nil.
type UpdateBoardInput struct {
	UserID  uint
	BoardID uint
	Name    *string
	Columns *model.Columns
}

func NewBoardService(store *repository.Store, boardCache BoardCache, logger *slog.Logger) *BoardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardService{
		store:      store,
		boardCache: boardCache,
		logger:     logger,
	}
}

func (s *BoardService) ListBoards(ctx context.Context, userID uint) ([]model.Board, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	// The owner check runs before the cache so a deleted account never reads a
	// list that outlived its eviction.
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if s.boardCache != nil {
		cached, hit, err := s.boardCache.GetBoards(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "read board cache failed", "user_id", userID, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	boards, err := s.store.Boards().ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if boards == nil {
		boards = []model.Board{}
	}

	if s.boardCache != nil {
		if err := s.boardCache.SetBoards(ctx, userID, boards); err != nil {
			s.logger.WarnContext(ctx, "write board cache failed", "user_id", userID, "error", err)
		}
	}
	return boards, nil
}

func (s *BoardService) GetBoard(ctx context.Context, userID, boardID uint) (*model.Board, error) {
	if userID == 0 || boardID == 0 {
		return nil, ErrBoardNotFound
	}
	board, err := s.store.Boards().GetByIDAndUserID(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}
	return board, nil
}

func (s *BoardService) CreateBoard(ctx context.Context, input CreateBoardInput) (*model.Board, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = NewBoardName
	}
	columns := input.Columns
	if columns == nil {
		columns = model.Columns{}
	}

	now := time.Now().UTC()
	board := &model.Board{
		UserID:    input.UserID,
		Name:      name,
		Columns:   columns.Normalize(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users().GetByID(ctx, input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		return tx.Boards().Create(ctx, board)
	})
	if err != nil {
		return nil, err
	}

	evictBoards(ctx, s.boardCache, s.logger, input.UserID)
	return board, nil
}

func (s *BoardService) UpdateBoard(ctx context.Context, input UpdateBoardInput) (*model.Board, error) {
	if input.UserID == 0 || input.BoardID == 0 {
		return nil, ErrBoardNotFound
	}

	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
	}

	var board *model.Board
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		board, err = tx.Boards().GetByIDAndUserID(ctx, input.BoardID, input.UserID)
		if err != nil {
			return err
		}
		if board == nil {
			return ErrBoardNotFound
		}

		if input.Name != nil {
			board.Name = name
		}
		if input.Columns != nil {
			board.Columns = input.Columns.Normalize()
		}
		board.UpdatedAt = time.Now().UTC()
		return tx.Boards().Update(ctx, board)
	})
	if err != nil {
		return nil, err
	}

	evictBoards(ctx, s.boardCache, s.logger, input.UserID)
	return board, nil
}

// UpdateColumns replaces the columns of a board. It is the narrow variant of
// UpdateBoard used for drag-and-drop reordering.
func (s *BoardService) UpdateColumns(ctx context.Context, userID, boardID uint, columns model.Columns) error {
	if columns == nil {
		return ErrInvalidInput
	}
	if userID == 0 || boardID == 0 {
		return ErrBoardNotFound
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		board, err := tx.Boards().GetByIDAndUserID(ctx, boardID, userID)
		if err != nil {
			return err
		}
		if board == nil {
			return ErrBoardNotFound
		}
		return tx.Boards().UpdateColumns(ctx, boardID, userID, columns.Normalize(), time.Now().UTC())
	})
	if err != nil {
		return err
	}

	evictBoards(ctx, s.boardCache, s.logger, userID)
	return nil
}

func (s *BoardService) DeleteBoard(ctx context.Context, userID, boardID uint) error {
	if userID == 0 || boardID == 0 {
		return ErrBoardNotFound
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		board, err := tx.Boards().GetByIDAndUserID(ctx, boardID, userID)
		if err != nil {
			return err
		}
		if board == nil {
			return ErrBoardNotFound
		}
		return tx.Boards().DeleteByIDAndUserID(ctx, boardID, userID)
	})
	if err != nil {
		return err
	}

	evictBoards(ctx, s.boardCache, s.logger, userID)
	return nil
}
