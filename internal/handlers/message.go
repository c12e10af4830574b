package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/handlers/dto"
	"github.com/thereayou/warbler/internal/middleware"
	"github.com/thereayou/warbler/internal/models"
	"github.com/thereayou/warbler/internal/monitoring"
	"github.com/thereayou/warbler/internal/services"
)

type MessageHandler struct {
	db           *database.Database
	messages     *services.MessageService
	timelineSize int
	log          logrus.FieldLogger
}

func NewMessageHandler(db *database.Database, messages *services.MessageService, timelineSize int, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{db: db, messages: messages, timelineSize: timelineSize, log: log}
}

// Home shows the timeline to a logged-in user and the landing page to
// everyone else.
func (h *MessageHandler) Home(c *gin.Context) {
	me := middleware.CurrentUser(c)
	if me == nil {
		render(c, http.StatusOK, "home-anon.html", Page{})
		return
	}
	ctx := c.Request.Context()

	messages, err := h.db.GetTimeline(ctx, me.ID, h.timelineSize)
	if err != nil {
		serverError(c, h.log, err, "load timeline failed")
		return
	}
	likes, err := h.db.GetLikedMessageIDs(ctx, me.ID)
	if err != nil {
		serverError(c, h.log, err, "load likes failed")
		return
	}
	stats, err := h.db.GetUserStats(ctx, me.ID)
	if err != nil {
		serverError(c, h.log, err, "load user stats failed")
		return
	}

	render(c, http.StatusOK, "home.html", Page{Messages: messages, Likes: likes, Stats: stats})
}

func (h *MessageHandler) NewPage(c *gin.Context) {
	render(c, http.StatusOK, "message-new.html", Page{Title: "New message", Form: dto.MessageForm{}})
}

func (h *MessageHandler) Create(c *gin.Context) {
	me := middleware.CurrentUser(c)

	var form dto.MessageForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "message-new.html", Page{
			Title: "New message",
			Form:  form,
			Error: "Messages must be between 1 and 140 characters.",
		})
		return
	}

	if _, err := h.messages.Post(c.Request.Context(), me, form.Text); err != nil {
		serverError(c, h.log, err, "post message failed")
		return
	}
	monitoring.MessagesPosted.Inc()
	redirect(c, userURL(me.ID))
}

// loadMessage resolves :id. It writes the 404 or 500 itself when it
// returns nil.
func (h *MessageHandler) loadMessage(c *gin.Context) *models.Message {
	id, ok := idParam(c, "id")
	if !ok {
		NotFound(c)
		return nil
	}

	message, err := h.db.GetMessage(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		NotFound(c)
		return nil
	}
	if err != nil {
		serverError(c, h.log, err, "load message failed")
		return nil
	}
	return message
}

func (h *MessageHandler) Show(c *gin.Context) {
	message := h.loadMessage(c)
	if message == nil {
		return
	}

	var liked bool
	if me := middleware.CurrentUser(c); me != nil {
		var err error
		liked, err = h.db.IsLiked(c.Request.Context(), me.ID, message.ID)
		if err != nil {
			serverError(c, h.log, err, "load like failed")
			return
		}
	}

	render(c, http.StatusOK, "message-show.html", Page{Title: "@" + message.User.Username, Message: message, Liked: liked})
}

// Delete removes a message owned by the current user.
func (h *MessageHandler) Delete(c *gin.Context) {
	me := middleware.CurrentUser(c)
	message := h.loadMessage(c)
	if message == nil {
		return
	}

	if message.UserID != me.ID {
		middleware.AddFlash(c, "danger", "Access unauthorized.")
		redirect(c, "/")
		return
	}

	if err := h.db.DeleteMessage(c.Request.Context(), message.ID); err != nil {
		serverError(c, h.log, err, "delete message failed")
		return
	}
	redirect(c, userURL(me.ID))
}

// ToggleLike likes or unlikes someone else's message.
func (h *MessageHandler) ToggleLike(c *gin.Context) {
	me := middleware.CurrentUser(c)
	message := h.loadMessage(c)
	if message == nil {
		return
	}

	if message.UserID == me.ID {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	liked, err := h.db.ToggleLike(c.Request.Context(), me.ID, message.ID)
	if err != nil {
		serverError(c, h.log, err, "toggle like failed")
		return
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	monitoring.LikesToggled.WithLabelValues(state).Inc()
	redirect(c, "/")
}

// APITimeline returns the caller's timeline.
func (h *MessageHandler) APITimeline(c *gin.Context) {
	userID, _ := middleware.AuthUserID(c)

	messages, err := h.db.GetTimeline(c.Request.Context(), userID, h.timelineSize)
	if err != nil {
		apiError(c, h.log, err, "failed to load timeline")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": dto.NewMessageResponses(messages)})
}

// APICreate posts a message and pushes it to the live feed.
func (h *MessageHandler) APICreate(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := middleware.AuthUserID(c)

	var req dto.MessageForm
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	author, err := h.db.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
		return
	}
	if err != nil {
		apiError(c, h.log, err, "failed to load user")
		return
	}

	message, err := h.messages.Post(ctx, author, req.Text)
	if err != nil {
		apiError(c, h.log, err, "failed to save message")
		return
	}
	monitoring.MessagesPosted.Inc()

	c.JSON(http.StatusCreated, dto.NewMessageResponse(message))
}
