// Package dbtest provides an in-memory stand-in for database.Store.
package dbtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/biosecret/todo-auth/models"
)

// MemoryStore follows the same ownership and ordering rules as the
// Postgres store. Set Err to make every call fail.
type MemoryStore struct {
	mu     sync.Mutex
	users  []models.User
	todos  map[int64]models.Todo
	nextID int64
	now    func() time.Time

	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos: make(map[int64]models.Todo),
		now:   time.Now,
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) Ping(context.Context) error {
	return s.Err
}

func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, u := range s.users {
		if u.Username == username {
			return 0, models.ErrDuplicateUsername
		}
	}
	user := models.User{ID: s.id(), Username: username, PasswordHash: passwordHash}
	s.users = append(s.users, user)
	return user.ID, nil
}

func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *MemoryStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

func (s *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if match(u) {
			user := u
			return &user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *MemoryStore) ListTodos(_ context.Context, ownerID int64) ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	todos := []models.Todo{}
	for _, t := range s.todos {
		if t.UserID == ownerID {
			todos = append(todos, t)
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.After(todos[j].CreatedAt)
		}
		return todos[i].ID > todos[j].ID
	})
	return todos, nil
}

func (s *MemoryStore) CreateTodo(_ context.Context, ownerID int64, content string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	known := false
	for _, u := range s.users {
		if u.ID == ownerID {
			known = true
			break
		}
	}
	if !known {
		return 0, models.ErrUserNotFound
	}
	todo := models.Todo{ID: s.id(), UserID: ownerID, Content: content, CreatedAt: s.now()}
	s.todos[todo.ID] = todo
	return todo.ID, nil
}

func (s *MemoryStore) ToggleTodo(_ context.Context, todoID, ownerID int64) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, false, s.Err
	}
	todo, ok := s.todos[todoID]
	if !ok || todo.UserID != ownerID {
		return false, false, nil
	}
	todo.Done = !todo.Done
	s.todos[todoID] = todo
	return todo.Done, true, nil
}

func (s *MemoryStore) DeleteTodo(_ context.Context, todoID, ownerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	todo, ok := s.todos[todoID]
	if !ok || todo.UserID != ownerID {
		return false, nil
	}
	delete(s.todos, todoID)
	return true, nil
}

// Todo returns a todo regardless of owner, for assertions.
func (s *MemoryStore) Todo(id int64) (models.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	return t, ok
}
