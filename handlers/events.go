package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/biosecret/todo-auth/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const sseRetry = 15 * time.Second

func formatSSEMessage(eventType string, data any) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return "", err
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("event: %s\n", eventType))
	sb.WriteString(fmt.Sprintf("retry: %d\n", sseRetry.Milliseconds()))
	// Encode ends with a newline; SSE needs one more to close the message.
	sb.WriteString(fmt.Sprintf("data: %s\n", buf.String()))

	return sb.String(), nil
}

// HandleTodoEvents streams the caller's todo changes as server-sent events.
//
//	@Summary	Todo change stream
//	@Tags		todos
//	@Produce	text/event-stream
//	@Security	BearerAuth
//	@Success	200
//	@Failure	401	{object}	apperrors.Response
//	@Router		/todos/events [get]
func (h *Handler) HandleTodoEvents(c *fiber.Ctx) error {
	userID, err := h.svc.RequireAuthenticated(c.UserContext(), middleware.Token(c))
	if err != nil {
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	stream, cancel := h.broker.Subscribe(userID)
	logger := h.logger.With(zap.Int64("user_id", userID))
	logger.Debug("event stream opened")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		keepAlive := time.NewTicker(h.cfg.KeepAlive)
		defer func() {
			keepAlive.Stop()
			cancel()
			logger.Debug("event stream closed")
		}()

		// flush headers so the client sees the stream open
		if _, err := w.WriteString(":ok\n\n"); err != nil || w.Flush() != nil {
			return
		}

		for {
			select {
			case ev, ok := <-stream:
				if !ok {
					return
				}
				msg, err := formatSSEMessage(string(ev.Type), ev)
				if err != nil {
					logger.Error("failed to format event", zap.Error(err))
					continue
				}
				if _, err := w.WriteString(msg); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepAlive.C:
				if _, err := w.WriteString(":keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}
