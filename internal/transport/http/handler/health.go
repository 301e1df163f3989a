package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kanban-auth/internal/bootstrap"
	"kanban-auth/internal/model"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the service can answer auth and board
// requests: the store must be reachable and migrated, and every enabled
// optional dependency must be connected.
type HealthHandler struct {
	app *bootstrap.App
}

type componentHealth struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type healthReport struct {
	Service     string                     `json:"service"`
	Env         string                     `json:"env"`
	MountPrefix string                     `json:"mount_prefix"`
	UptimeSec   int64                      `json:"uptime_sec"`
	Components  map[string]componentHealth `json:"components"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := healthReport{
		Service:     h.app.Config.App.Name,
		Env:         h.app.Config.App.Env,
		MountPrefix: h.app.Config.App.MountPrefix,
		UptimeSec:   int64(time.Since(h.app.StartedAt).Seconds()),
		Components: map[string]componentHealth{
			"database":       h.database(ctx),
			"schema":         h.schema(),
			"board_cache":    h.boardCache(ctx),
			"account_events": h.accountEvents(),
		},
	}

	status := http.StatusOK
	for _, component := range report.Components {
		if !component.OK {
			status = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(status, report)
}

func (h *HealthHandler) database(ctx context.Context) componentHealth {
	sqlDB, err := h.app.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return componentHealth{Detail: err.Error()}
	}
	return componentHealth{OK: true, Detail: h.app.Config.Database.Driver}
}

// schema checks that the users and boards tables exist.
func (h *HealthHandler) schema() componentHealth {
	migrator := h.app.DB.Migrator()
	if !migrator.HasTable(&model.User{}) {
		return componentHealth{Detail: "users table missing"}
	}
	if !migrator.HasTable(&model.Board{}) {
		return componentHealth{Detail: "boards table missing"}
	}
	return componentHealth{OK: true}
}

func (h *HealthHandler) boardCache(ctx context.Context) componentHealth {
	if h.app.Redis == nil {
		return componentHealth{OK: true, Detail: "disabled"}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return componentHealth{Detail: err.Error()}
	}
	return componentHealth{OK: true}
}

func (h *HealthHandler) accountEvents() componentHealth {
	if !h.app.Config.RabbitMQ.Enabled {
		return componentHealth{OK: true, Detail: "disabled"}
	}
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return componentHealth{Detail: "connection closed"}
	}
	return componentHealth{OK: true, Detail: h.app.Config.RabbitMQ.AccountEventQueue}
}
