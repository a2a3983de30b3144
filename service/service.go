// Package service implements registration, login and the todo operations.
// Every todo operation is scoped to the user id returned by
// RequireAuthenticated; rows owned by anyone else are never read or changed.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/biosecret/todo-auth/apperrors"
	"github.com/biosecret/todo-auth/events"
	"github.com/biosecret/todo-auth/models"
	"github.com/biosecret/todo-auth/session"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence contract; database.Store implements it.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListTodos(ctx context.Context, ownerID int64) ([]models.Todo, error)
	CreateTodo(ctx context.Context, ownerID int64, content string) (int64, error)
	ToggleTodo(ctx context.Context, todoID, ownerID int64) (done bool, matched bool, err error)
	DeleteTodo(ctx context.Context, todoID, ownerID int64) (bool, error)
}

type Service struct {
	store      Store
	sessions   *session.Manager
	notifier   events.Notifier
	clock      clockwork.Clock
	logger     *zap.Logger
	bcryptCost int
	dummyHash  []byte
}

type Option func(*Service)

func WithNotifier(n events.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func New(store Store, sessions *session.Manager, opts ...Option) (*Service, error) {
	s := &Service{
		store:      store,
		sessions:   sessions,
		notifier:   events.Discard{},
		clock:      clockwork.NewRealClock(),
		logger:     zap.NewNop(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Compared against when the username is unknown so both paths cost one bcrypt.
	dummy, err := bcrypt.GenerateFromPassword([]byte("todo-auth-dummy-password"), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hashing: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register creates a user. It does not log the user in.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, ErrPasswordTooLong
	}
	if err != nil {
		return 0, apperrors.Internal("could not hash password", err)
	}

	id, err := s.store.CreateUser(ctx, username, string(hash))
	if errors.Is(err, models.ErrDuplicateUsername) {
		return 0, ErrUsernameTaken
	}
	if err != nil {
		return 0, apperrors.Internal("could not create user", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", id))
	return id, nil
}

// Login verifies credentials and starts a fresh session. Any session behind
// priorToken is destroyed first, whatever the outcome.
func (s *Service) Login(ctx context.Context, priorToken, username, password string) (string, *models.User, error) {
	if err := s.sessions.Destroy(ctx, priorToken); err != nil {
		return "", nil, apperrors.Internal("could not clear session", err)
	}

	username = strings.TrimSpace(username)
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return "", nil, apperrors.Internal("could not load user", err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || user == nil {
		s.logger.Info("login failed")
		return "", nil, ErrInvalidCredentials
	}

	token, _, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, apperrors.Internal("could not create session", err)
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return token, user, nil
}

// Logout clears the session unconditionally.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return apperrors.Internal("could not clear session", err)
	}
	return nil
}

// RequireAuthenticated is the authorization gate for every todo operation.
// It returns ErrAuthRequired for anonymous requests.
func (s *Service) RequireAuthenticated(ctx context.Context, token string) (int64, error) {
	sess, err := s.sessions.Resolve(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		return 0, ErrAuthRequired
	}
	if err != nil {
		return 0, apperrors.Internal("could not resolve session", err)
	}
	return sess.UserID, nil
}

// CurrentUser returns the user behind token.
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.RequireAuthenticated(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if errors.Is(err, models.ErrUserNotFound) {
		// session outlived its user row; treat as anonymous
		return nil, ErrAuthRequired
	}
	if err != nil {
		return nil, apperrors.Internal("could not load user", err)
	}
	return user, nil
}

// AddTodo stores trimmed content. Empty content is ignored: created is
// false and no error is returned.
func (s *Service) AddTodo(ctx context.Context, userID int64, content string) (id int64, created bool, err error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, false, nil
	}

	id, err = s.store.CreateTodo(ctx, userID, content)
	if err != nil {
		return 0, false, apperrors.Internal("could not create todo", err)
	}

	s.notify(ctx, events.Event{Type: events.TodoCreated, UserID: userID, TodoID: id, Content: content})
	return id, true, nil
}

// ToggleTodo flips done on the user's own todo and returns the new value.
// A todo the user does not own is left untouched and reported as not done.
func (s *Service) ToggleTodo(ctx context.Context, userID, todoID int64) (bool, error) {
	done, matched, err := s.store.ToggleTodo(ctx, todoID, userID)
	if err != nil {
		return false, apperrors.Internal("could not toggle todo", err)
	}
	if !matched {
		s.logger.Debug("toggle matched no todo", zap.Int64("user_id", userID), zap.Int64("todo_id", todoID))
		return false, nil
	}

	s.notify(ctx, events.Event{Type: events.TodoToggled, UserID: userID, TodoID: todoID, Done: done})
	return done, nil
}

// DeleteTodo removes the user's own todo; anything else is a no-op.
func (s *Service) DeleteTodo(ctx context.Context, userID, todoID int64) error {
	deleted, err := s.store.DeleteTodo(ctx, todoID, userID)
	if err != nil {
		return apperrors.Internal("could not delete todo", err)
	}
	if !deleted {
		s.logger.Debug("delete matched no todo", zap.Int64("user_id", userID), zap.Int64("todo_id", todoID))
		return nil
	}

	s.notify(ctx, events.Event{Type: events.TodoDeleted, UserID: userID, TodoID: todoID})
	return nil
}

func (s *Service) ListTodos(ctx context.Context, userID int64) ([]models.Todo, error) {
	todos, err := s.store.ListTodos(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("could not list todos", err)
	}
	return todos, nil
}

func (s *Service) notify(ctx context.Context, ev events.Event) {
	ev.At = s.clock.Now()
	s.notifier.Notify(ctx, ev)
}
