package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/internal/middleware"
	ws "github.com/thereayou/warbler/internal/websocket"
)

// FeedHandler serves the live warble feed at /api/ws.
type FeedHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewFeedHandler(hub *ws.Hub, allowedOrigin string, log logrus.FieldLogger) *FeedHandler {
	return &FeedHandler{
		hub:      hub,
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigin)},
	}
}

// originChecker allows every origin when allowed is empty.
func originChecker(allowed string) func(*http.Request) bool {
	if allowed == "" {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool { return r.Header.Get("Origin") == allowed }
}

func (h *FeedHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.WithError(err).WithField("user_id", userID).Warn("live feed upgrade failed")
		return
	}

	client, err := h.hub.Attach(conn, userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("live feed unavailable")
		return
	}
	h.log.WithFields(logrus.Fields{"user_id": userID, "client_id": client.ID}).Info("live feed subscribed")
}
