package middleware

import (
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/models"
)

const (
	SessionName = "warbler"
	CurrUserKey = "curr_user"

	sessionKey     = "session"
	currentUserKey = "currentUser"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Session loads the cookie session and, when it names a user, the user
// record. A session pointing at a deleted user is cleared.
func Session(store sessions.Store, db *database.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionName)
		if err != nil {
			// a cookie signed with an old key still yields a usable new session
			logrus.WithError(err).Debug("discarding unreadable session cookie")
		}
		c.Set(sessionKey, sess)

		if id, ok := sess.Values[CurrUserKey].(uint); ok {
			user, err := db.GetUser(c.Request.Context(), id)
			switch {
			case err == nil:
				c.Set(currentUserKey, user)
			case errors.Is(err, database.ErrNotFound):
				delete(sess.Values, CurrUserKey)
				if err := sess.Save(c.Request, c.Writer); err != nil {
					logrus.WithError(err).Warn("could not clear stale session")
				}
			default:
				logrus.WithError(err).WithField("user_id", id).Error("could not load session user")
			}
		}
		c.Next()
	}
}

// RequireUser turns anonymous visitors away to the home page.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			AddFlash(c, "danger", "Access unauthorized.")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func session(c *gin.Context) *sessions.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*sessions.Session)
	return sess
}

// Login records user in the session.
func Login(c *gin.Context, user *models.User) error {
	sess := session(c)
	if sess == nil {
		return errors.New("session middleware not installed")
	}
	sess.Values[CurrUserKey] = user.ID
	c.Set(currentUserKey, user)
	return sess.Save(c.Request, c.Writer)
}

// Logout removes the user from the session. Pending flashes survive.
func Logout(c *gin.Context) error {
	sess := session(c)
	if sess == nil {
		return errors.New("session middleware not installed")
	}
	delete(sess.Values, CurrUserKey)
	c.Set(currentUserKey, (*models.User)(nil))
	return sess.Save(c.Request, c.Writer)
}

// AddFlash queues a notice and saves the session. It must run before the
// response body is written.
func AddFlash(c *gin.Context, category, message string) {
	sess := session(c)
	if sess == nil {
		return
	}
	sess.AddFlash(Flash{Category: category, Message: message})
	if err := sess.Save(c.Request, c.Writer); err != nil {
		logrus.WithError(err).Warn("could not save flash")
	}
}

// Flashes pops the queued notices.
func Flashes(c *gin.Context) []Flash {
	sess := session(c)
	if sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request, c.Writer); err != nil {
		logrus.WithError(err).Warn("could not save session after reading flashes")
	}

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}
