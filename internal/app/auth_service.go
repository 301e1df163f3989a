package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"kanban-auth/internal/model"
	"kanban-auth/internal/pkg/jwtutil"
	"kanban-auth/internal/repository"
)

type AuthService struct {
	store         *repository.Store
	jwtSecret     string
	jwtExpiration time.Duration
	bcryptCost    int
	publisher     EventPublisher
	boardCache    BoardCache
	logger        *slog.Logger
}

type AuthOptions struct {
	JWTSecret     string
	JWTExpiration time.Duration
	BcryptCost    int
	Publisher     EventPublisher
	BoardCache    BoardCache
	Logger        *slog.Logger
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(store *repository.Store, opts AuthOptions) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AuthService{
		store:         store,
		jwtSecret:     opts.JWTSecret,
		jwtExpiration: opts.JWTExpiration,
		bcryptCost:    opts.BcryptCost,
		publisher:     opts.Publisher,
		boardCache:    opts.BoardCache,
		logger:        opts.Logger,
	}
}

// Register creates the user and its default board in one transaction.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Boards().Create(ctx, &model.Board{
			UserID:    user.ID,
			Name:      model.DefaultBoardName,
			Columns:   model.DefaultColumns(),
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.publish(ctx, model.AccountEventRegistered, user)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, newPassword, confirmPassword string) error {
	if newPassword == "" || confirmPassword == "" {
		return ErrInvalidInput
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	var user *model.User
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var getErr error
		user, getErr = tx.Users().GetByID(ctx, userID)
		if getErr != nil {
			return getErr
		}
		if user == nil {
			return ErrUserNotFound
		}
		return tx.Users().UpdatePasswordHash(ctx, userID, hash)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, model.AccountEventPasswordChanged, user)
	return nil
}

// DeleteAccount removes the caller and every board it owns. The supplied email
// must match the caller's own.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	var user *model.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.Email != email {
			return ErrEmailMismatch
		}
		if err := tx.Boards().DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	evictBoards(ctx, s.boardCache, s.logger, userID)
	s.publish(ctx, model.AccountEventDeleted, user)
	return nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrInvalidInput
		}
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user *model.User) {
	if s.publisher == nil || user == nil {
		return
	}
	event := model.AccountEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish account event failed", "type", eventType, "user_id", user.ID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
