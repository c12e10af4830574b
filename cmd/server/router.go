package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/handlers"
	"github.com/thereayou/warbler/internal/handlers/dto"
	"github.com/thereayou/warbler/internal/logger"
	"github.com/thereayou/warbler/internal/middleware"
	"github.com/thereayou/warbler/internal/monitoring"
	"github.com/thereayou/warbler/internal/services"
	"github.com/thereayou/warbler/internal/views"
	ws "github.com/thereayou/warbler/internal/websocket"
	"github.com/thereayou/warbler/pkg/auth"
)

// Deps is everything the router needs. Tests build it with in-memory
// stand-ins for redis.
type Deps struct {
	DB           *database.Database
	Users        *services.UserService
	Hub          *ws.Hub
	Sessions     sessions.Store
	JWTManager   *auth.JWTManager
	Blacklist    auth.Blacklist
	RateCounter  middleware.Counter
	Log          logrus.FieldLogger
	TimelineSize int
	RateLimitMax int
	RateWindow   time.Duration
	WSOrigin     string
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if err := dto.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	tmpl, err := views.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	messages := services.NewMessageService(d.DB, d.Hub, d.Log)

	authH := handlers.NewAuthHandler(d.Users, d.JWTManager, d.Blacklist, d.Log)
	userH := handlers.NewUserHandler(d.DB, d.Users, d.TimelineSize, d.Log)
	messageH := handlers.NewMessageHandler(d.DB, messages, d.TimelineSize, d.Log)
	feedH := handlers.NewFeedHandler(d.Hub, d.WSOrigin, d.Log)
	healthH := handlers.NewHealthHandler(d.DB, d.Hub, d.Log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(d.Log))
	r.Use(monitoring.Instrument())
	r.SetHTMLTemplate(tmpl)

	r.StaticFS("/static", views.Static())
	r.GET("/metrics", monitoring.Handler())
	r.GET("/healthz", healthH.Ready)

	loginLimit := middleware.RateLimit(d.RateCounter, "login", d.RateLimitMax, d.RateWindow)

	WebEndpoints(r, d, loginLimit, authH, userH, messageH)
	APIEndpoints(r, d, loginLimit, authH, userH, messageH, feedH)

	r.NoRoute(middleware.Session(d.Sessions, d.DB), handlers.NotFound)
	return r, nil
}

func WebEndpoints(r *gin.Engine, d Deps, loginLimit gin.HandlerFunc, authH *handlers.AuthHandler, userH *handlers.UserHandler, messageH *handlers.MessageHandler) {
	web := r.Group("/", middleware.Session(d.Sessions, d.DB))
	{
		web.GET("/", messageH.Home)
		web.GET("/signup", authH.SignupPage)
		web.POST("/signup", authH.Signup)
		web.GET("/login", authH.LoginPage)
		web.POST("/login", loginLimit, authH.Login)
		web.GET("/logout", authH.Logout)
		web.GET("/messages/:id", messageH.Show)
	}

	private := web.Group("/", middleware.RequireUser())
	{
		private.GET("/users", userH.Index)
		private.GET("/users/:id", userH.Show)
		private.GET("/users/:id/following", userH.Following)
		private.GET("/users/:id/followers", userH.Followers)
		private.GET("/users/:id/likes", userH.Likes)
		private.POST("/users/follow/:id", userH.Follow)
		private.POST("/users/stop-following/:id", userH.StopFollowing)
		private.GET("/users/profile", userH.EditProfilePage)
		private.POST("/users/profile", userH.UpdateProfile)
		private.POST("/users/delete", userH.Delete)
		private.POST("/users/add_like/:id", messageH.ToggleLike)

		private.GET("/messages/new", messageH.NewPage)
		private.POST("/messages/new", messageH.Create)
		private.POST("/messages/:id/delete", messageH.Delete)
	}
}

func APIEndpoints(r *gin.Engine, d Deps, loginLimit gin.HandlerFunc, authH *handlers.AuthHandler, userH *handlers.UserHandler, messageH *handlers.MessageHandler, feedH *handlers.FeedHandler) {
	api := r.Group("/api")
	{
		api.POST("/auth/login", loginLimit, authH.APILogin)
		api.GET("/ws", middleware.WSAuth(d.JWTManager, d.Blacklist), feedH.Subscribe)
	}

	protected := api.Group("/", middleware.APIAuth(d.JWTManager, d.Blacklist))
	{
		protected.POST("/auth/logout", authH.APILogout)
		protected.GET("/users/:id", userH.APIShow)
		protected.GET("/timeline", messageH.APITimeline)
		protected.POST("/messages", messageH.APICreate)
	}
}
