package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/handlers/dto"
	"github.com/thereayou/warbler/internal/middleware"
	"github.com/thereayou/warbler/internal/models"
	"github.com/thereayou/warbler/internal/services"
)

type UserHandler struct {
	db           *database.Database
	users        *services.UserService
	timelineSize int
	log          logrus.FieldLogger
}

func NewUserHandler(db *database.Database, users *services.UserService, timelineSize int, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{db: db, users: users, timelineSize: timelineSize, log: log}
}

// Index lists users whose username contains ?q, everyone without it.
func (h *UserHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	me := middleware.CurrentUser(c)
	query := c.Query("q")

	users, err := h.db.SearchUsers(ctx, query)
	if err != nil {
		serverError(c, h.log, err, "search users failed")
		return
	}
	following, err := h.db.GetFollowingIDs(ctx, me.ID)
	if err != nil {
		serverError(c, h.log, err, "load following failed")
		return
	}

	render(c, http.StatusOK, "users-index.html", Page{
		Title:     "Users",
		Query:     query,
		Users:     users,
		Following: following,
	})
}

// profile loads the user named by :id with the parts every profile tab
// shows. It writes the response itself when it returns false.
func (h *UserHandler) profile(c *gin.Context) (Page, bool) {
	ctx := c.Request.Context()
	me := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		NotFound(c)
		return Page{}, false
	}

	user, err := h.db.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		NotFound(c)
		return Page{}, false
	}
	if err != nil {
		serverError(c, h.log, err, "load user failed")
		return Page{}, false
	}

	stats, err := h.db.GetUserStats(ctx, id)
	if err != nil {
		serverError(c, h.log, err, "load user stats failed")
		return Page{}, false
	}

	isFollowing, err := h.users.IsFollowing(ctx, me.ID, id)
	if err != nil {
		serverError(c, h.log, err, "load follow state failed")
		return Page{}, false
	}

	return Page{Title: "@" + user.Username, User: user, Stats: stats, IsFollowing: isFollowing}, true
}

func (h *UserHandler) Show(c *gin.Context) {
	page, ok := h.profile(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	messages, err := h.db.GetUserMessages(ctx, page.User.ID, h.timelineSize)
	if err != nil {
		serverError(c, h.log, err, "load messages failed")
		return
	}
	likes, err := h.db.GetLikedMessageIDs(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		serverError(c, h.log, err, "load likes failed")
		return
	}

	page.Messages = messages
	page.Likes = likes
	render(c, http.StatusOK, "user-show.html", page)
}

func (h *UserHandler) Following(c *gin.Context) {
	h.userList(c, "user-following.html", h.db.GetFollowing)
}

func (h *UserHandler) Followers(c *gin.Context) {
	h.userList(c, "user-followers.html", h.db.GetFollowers)
}

func (h *UserHandler) userList(c *gin.Context, tmpl string, load func(ctx context.Context, userID uint) ([]models.User, error)) {
	page, ok := h.profile(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	users, err := load(ctx, page.User.ID)
	if err != nil {
		serverError(c, h.log, err, "load users failed")
		return
	}
	following, err := h.db.GetFollowingIDs(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		serverError(c, h.log, err, "load following failed")
		return
	}

	page.Users = users
	page.Following = following
	render(c, http.StatusOK, tmpl, page)
}

func (h *UserHandler) Likes(c *gin.Context) {
	page, ok := h.profile(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	messages, err := h.db.GetLikedMessages(ctx, page.User.ID)
	if err != nil {
		serverError(c, h.log, err, "load liked messages failed")
		return
	}
	likes, err := h.db.GetLikedMessageIDs(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		serverError(c, h.log, err, "load likes failed")
		return
	}

	page.Messages = messages
	page.Likes = likes
	render(c, http.StatusOK, "user-likes.html", page)
}

// followTarget resolves :id for follow and unfollow. It writes the
// response itself when it returns false.
func (h *UserHandler) followTarget(c *gin.Context) (uint, bool) {
	me := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		NotFound(c)
		return 0, false
	}
	if id == me.ID {
		middleware.AddFlash(c, "danger", "You can't follow yourself.")
		redirect(c, userURL(me.ID))
		return 0, false
	}

	if _, err := h.db.GetUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NotFound(c)
		} else {
			serverError(c, h.log, err, "load user failed")
		}
		return 0, false
	}
	return id, true
}

func (h *UserHandler) Follow(c *gin.Context) {
	id, ok := h.followTarget(c)
	if !ok {
		return
	}
	me := middleware.CurrentUser(c)

	if err := h.db.Follow(c.Request.Context(), me.ID, id); err != nil {
		serverError(c, h.log, err, "follow failed")
		return
	}
	redirect(c, userURL(me.ID)+"/following")
}

func (h *UserHandler) StopFollowing(c *gin.Context) {
	id, ok := h.followTarget(c)
	if !ok {
		return
	}
	me := middleware.CurrentUser(c)

	if err := h.db.Unfollow(c.Request.Context(), me.ID, id); err != nil {
		serverError(c, h.log, err, "unfollow failed")
		return
	}
	redirect(c, userURL(me.ID)+"/following")
}

func (h *UserHandler) EditProfilePage(c *gin.Context) {
	me := middleware.CurrentUser(c)
	render(c, http.StatusOK, "profile-edit.html", Page{
		Title: "Edit profile",
		Form: dto.ProfileForm{
			Username:       me.Username,
			Email:          me.Email,
			ImageURL:       me.ImageURL,
			HeaderImageURL: me.HeaderImageURL,
			Bio:            me.Bio,
			Location:       me.Location,
		},
	})
}

// UpdateProfile saves the form after the current password is confirmed.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()
	me := middleware.CurrentUser(c)

	var form dto.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		render(c, http.StatusBadRequest, "profile-edit.html", Page{Title: "Edit profile", Form: form, Error: msgInvalidForm})
		return
	}

	confirmed, err := h.users.Authenticate(ctx, me.Username, form.Password)
	if err != nil {
		serverError(c, h.log, err, "password confirmation failed")
		return
	}
	if confirmed == nil {
		middleware.AddFlash(c, "danger", "Wrong password, please try again.")
		redirect(c, "/")
		return
	}

	err = h.users.UpdateProfile(ctx, me, models.ProfileUpdate{
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
	})
	if errors.Is(err, database.ErrDuplicateEntry) {
		form.Password = ""
		render(c, http.StatusBadRequest, "profile-edit.html", Page{Title: "Edit profile", Form: form, Error: msgDuplicateUser})
		return
	}
	if err != nil {
		serverError(c, h.log, err, "update profile failed")
		return
	}

	redirect(c, userURL(me.ID))
}

// Delete removes the current account and everything it owns.
func (h *UserHandler) Delete(c *gin.Context) {
	me := middleware.CurrentUser(c)

	if err := h.db.DeleteUser(c.Request.Context(), me.ID); err != nil {
		serverError(c, h.log, err, "delete user failed")
		return
	}
	if err := middleware.Logout(c); err != nil {
		serverError(c, h.log, err, "could not end session")
		return
	}

	h.log.WithField("user_id", me.ID).Info("user deleted")
	middleware.AddFlash(c, "success", "Your account has been deleted.")
	redirect(c, "/signup")
}

// APIShow returns a user with profile counters.
func (h *UserHandler) APIShow(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := idParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	user, err := h.db.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		apiError(c, h.log, err, "failed to load user")
		return
	}

	stats, err := h.db.GetUserStats(ctx, id)
	if err != nil {
		apiError(c, h.log, err, "failed to load user stats")
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user, &stats))
}
