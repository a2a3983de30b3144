package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/biosecret/todo-auth/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store runs the parameterized queries for users and todos.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id",
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, models.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "SELECT id, username, password_hash FROM users WHERE username = $1", username)
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findUser(ctx, "SELECT id, username, password_hash FROM users WHERE id = $1", id)
}

func (s *Store) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// ListTodos returns the owner's todos, newest first.
func (s *Store) ListTodos(ctx context.Context, ownerID int64) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, content, done, created_at FROM todos WHERE user_id = $1 ORDER BY created_at DESC, id DESC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var todo models.Todo
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Content, &todo.Done, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

func (s *Store) CreateTodo(ctx context.Context, ownerID int64, content string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO todos (user_id, content) VALUES ($1, $2) RETURNING id",
		ownerID, content,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert todo: %w", err)
	}
	return id, nil
}

func setTodoDone(ctx context.Context, q querier, todoID, ownerID int64, done bool) (bool, error) {
	res, err := q.ExecContext(ctx,
		"UPDATE todos SET done = $1 WHERE id = $2 AND user_id = $3",
		done, todoID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ToggleTodo flips done under a row lock. matched is false when the todo
// does not exist or belongs to someone else.
func (s *Store) ToggleTodo(ctx context.Context, todoID, ownerID int64) (done bool, matched bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current bool
	err = tx.QueryRowContext(ctx,
		"SELECT done FROM todos WHERE id = $1 AND user_id = $2 FOR UPDATE",
		todoID, ownerID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to lock todo: %w", err)
	}

	if _, err := setTodoDone(ctx, tx, todoID, ownerID, !current); err != nil {
		return false, false, err
	}
	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("failed to commit toggle: %w", err)
	}
	return !current, true, nil
}

// DeleteTodo reports whether a todo matched both id and owner.
func (s *Store) DeleteTodo(ctx context.Context, todoID, ownerID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM todos WHERE id = $1 AND user_id = $2", todoID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
