package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/middleware"
	"github.com/thereayou/warbler/internal/models"
)

// Page is the data every template receives. Handlers fill what their page
// needs and render adds the session parts.
type Page struct {
	Title       string
	CurrentUser *models.User
	Flashes     []middleware.Flash
	Query       string

	Form  interface{}
	Error string

	User        *models.User
	Stats       database.UserStats
	IsFollowing bool
	Users       []models.User
	Following   map[uint]bool

	Messages []models.Message
	Likes    map[uint]bool

	Message *models.Message
	Liked   bool
}

func render(c *gin.Context, status int, name string, page Page) {
	page.CurrentUser = middleware.CurrentUser(c)
	page.Flashes = middleware.Flashes(c)
	c.HTML(status, name, page)
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func userURL(id uint) string {
	return "/users/" + strconv.FormatUint(uint64(id), 10)
}

// NotFound renders the 404 page. It doubles as the router's NoRoute.
func NotFound(c *gin.Context) {
	render(c, http.StatusNotFound, "404.html", Page{Title: "Not Found"})
}

func serverError(c *gin.Context, log logrus.FieldLogger, err error, msg string) {
	_ = c.Error(err)
	log.WithError(err).WithField("path", c.Request.URL.Path).Error(msg)
	render(c, http.StatusInternalServerError, "error.html", Page{Title: "Error"})
}

func apiError(c *gin.Context, log logrus.FieldLogger, err error, msg string) {
	_ = c.Error(err)
	log.WithError(err).WithField("path", c.Request.URL.Path).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
