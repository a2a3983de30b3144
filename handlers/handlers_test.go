package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/biosecret/todo-auth/database/dbtest"
	"github.com/biosecret/todo-auth/events"
	"github.com/biosecret/todo-auth/middleware"
	"github.com/biosecret/todo-auth/service"
	"github.com/biosecret/todo-auth/session"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                 "/todos",
		"/":                "/",
		"/todos?x=1":       "/todos?x=1",
		"//evil.example":   "/todos",
		`/\evil.example`:   "/todos",
		"http://evil/":     "/todos",
		"todos":            "/todos",
		"/\t/evil.example": "/todos",
		"/\n/evil.example": "/todos",
		"/\r\n//evil":      "/todos",
		"/ /evil.example":  "/todos",
		"/todos\x00":       "/todos",
		"/todos/1/toggle":  "/todos/1/toggle",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), "next=%q", in)
	}
}

func TestFormatSSEMessage(t *testing.T) {
	msg, err := formatSSEMessage("todo.created", map[string]any{"todo_id": 3})
	require.NoError(t, err)
	assert.Equal(t, "event: todo.created\nretry: 15000\ndata: {\"todo_id\":3}\n\n", msg)
}

func TestHandleTodoEvents_Stream(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewRealClock()
	store := dbtest.NewMemoryStore()
	manager := session.NewManager(session.NewMemoryStore(clock), []byte("handlers-test-secret-01"), time.Hour, clock)
	broker := events.NewBroker()
	svc, err := service.New(store, manager, service.WithBcryptCost(bcrypt.MinCost), service.WithNotifier(broker))
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	token, user, err := svc.Login(ctx, "", "alice", "pw")
	require.NoError(t, err)

	h := New(svc, broker, store, Config{CookieName: "sid", KeepAlive: 50 * time.Millisecond}, zap.NewNop())
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Use(middleware.SessionToken("sid"))
	app.Get("/todos/events", h.HandleTodoEvents)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.ShutdownWithTimeout(time.Second) }()

	req, err := http.NewRequest("GET", "http://"+ln.Addr().String()+"/todos/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":ok\n", line)

	require.Eventually(t, func() bool { return broker.Subscribers(user.ID) == 1 }, time.Second, 10*time.Millisecond)

	id, _, err := svc.AddTodo(ctx, user.ID, "streamed")
	require.NoError(t, err)

	var data string
	deadline := time.Now().Add(2 * time.Second)
	for data == "" && time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}
	require.NotEmpty(t, data)

	var ev events.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, events.TodoCreated, ev.Type)
	assert.Equal(t, id, ev.TodoID)
	assert.Equal(t, "streamed", ev.Content)
}

func TestHandleTodoEvents_RequiresSession(t *testing.T) {
	clock := clockwork.NewRealClock()
	store := dbtest.NewMemoryStore()
	manager := session.NewManager(session.NewMemoryStore(clock), []byte("handlers-test-secret-01"), time.Hour, clock)
	broker := events.NewBroker()
	svc, err := service.New(store, manager, service.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	h := New(svc, broker, store, Config{CookieName: "sid"}, zap.NewNop())
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Use(middleware.SessionToken("sid"))
	app.Get("/todos/events", h.HandleTodoEvents)

	req, err := http.NewRequest("GET", "/todos/events", nil)
	require.NoError(t, err)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, broker.Subscribers(1))
}
