package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/internal/database"
	ws "github.com/thereayou/warbler/internal/websocket"
)

const readyTimeout = 2 * time.Second

// HealthHandler answers readiness checks at /healthz.
type HealthHandler struct {
	db  *database.Database
	hub *ws.Hub
	log logrus.FieldLogger
}

func NewHealthHandler(db *database.Database, hub *ws.Hub, log logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{db: db, hub: hub, log: log}
}

// Ready returns 503 when the database does not answer within readyTimeout.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"database":     "up",
		"online_users": len(h.hub.OnlineUsers()),
	})
}
