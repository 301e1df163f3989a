package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicateKey is returned (wrapped) when an insert or update violates a
// unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// Store groups the repositories that share one gorm handle, which is either
// the connection pool or a single transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() *UserRepository {
	return NewUserRepository(s.db)
}

func (s *Store) Boards() *BoardRepository {
	return NewBoardRepository(s.db)
}

// Transaction runs fn against a transaction-bound Store. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
