package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kanban-auth/internal/logging"
	"kanban-auth/internal/model"
	"kanban-auth/internal/repository"
)

const testSecret = "test-secret"

func newTestStore(t *testing.T) (*repository.Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Board{}))
	return repository.NewStore(db), db
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.AccountEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event model.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[uint][]model.Board
	gets    int
	hits    int
	deletes int
	failGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[uint][]model.Board{}}
}

func (c *fakeCache) GetBoards(_ context.Context, userID uint) ([]model.Board, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("redis down")
	}
	boards, ok := c.entries[userID]
	if ok {
		c.hits++
	}
	return boards, ok, nil
}

func (c *fakeCache) SetBoards(_ context.Context, userID uint, boards []model.Board) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = boards
	return nil
}

func (c *fakeCache) DeleteBoards(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, userID)
	return nil
}

func (c *fakeCache) has(userID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[userID]
	return ok
}

type fixture struct {
	db        *gorm.DB
	store     *repository.Store
	auth      *AuthService
	boards    *BoardService
	publisher *fakePublisher
	cache     *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, db := newTestStore(t)
	publisher := &fakePublisher{}
	cache := newFakeCache()
	log := logging.Discard()

	return &fixture{
		db:        db,
		store:     store,
		publisher: publisher,
		cache:     cache,
		auth: NewAuthService(store, AuthOptions{
			JWTSecret:     testSecret,
			JWTExpiration: time.Hour,
			BcryptCost:    bcrypt.MinCost,
			Publisher:     publisher,
			BoardCache:    cache,
			Logger:        log,
		}),
		boards: NewBoardService(store, cache, log),
	}
}

func (f *fixture) register(t *testing.T, email, password string) *model.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), RegisterInput{Email: email, Password: password})
	require.NoError(t, err)
	return user
}
