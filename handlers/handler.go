package handlers

import (
	"context"
	"time"

	"github.com/biosecret/todo-auth/events"
	"github.com/biosecret/todo-auth/service"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	// KeepAlive is the interval between SSE keepalive comments.
	KeepAlive time.Duration
}

type Handler struct {
	svc    *service.Service
	broker *events.Broker
	db     Pinger
	cfg    Config
	logger *zap.Logger
}

func New(svc *service.Service, broker *events.Broker, db Pinger, cfg Config, logger *zap.Logger) *Handler {
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 15 * time.Second
	}
	return &Handler{
		svc:    svc,
		broker: broker,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *Handler) CookieName() string {
	return h.cfg.CookieName
}
