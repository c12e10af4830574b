package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/internal/config"
	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/logger"
	"github.com/thereayou/warbler/internal/middleware"
	"github.com/thereayou/warbler/internal/services"
	ws "github.com/thereayou/warbler/internal/websocket"
	"github.com/thereayou/warbler/pkg/auth"
)

type Server struct {
	Config     *config.Config
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *ws.Hub
	JWTManager *auth.JWTManager
	Log        *logrus.Logger
}

// NewServer connects to postgres and redis and wires the router.
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.New(cfg.LogLevel, cfg.Env)
	gin.SetMode(ginMode(cfg))

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	hub := ws.NewHub(log)

	router, err := NewRouter(Deps{
		DB:           dbConn,
		Users:        services.NewUserService(dbConn),
		Hub:          hub,
		Sessions:     store,
		JWTManager:   jwtMgr,
		Blacklist:    auth.NewRedisBlacklist(rdb),
		RateCounter:  middleware.NewRedisCounter(rdb),
		Log:          log,
		TimelineSize: cfg.TimelineSize,
		RateLimitMax: cfg.RateLimitMax,
		RateWindow:   cfg.RateLimitWindow,
		WSOrigin:     cfg.WSAllowedOrigin,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		Config:     cfg,
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		Hub:        hub,
		JWTManager: jwtMgr,
		Log:        log,
	}, nil
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	go s.Hub.Run()

	httpServer := &http.Server{
		Addr:              s.Config.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.WithField("addr", httpServer.Addr).Info("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			s.close()
			return fmt.Errorf("server run: %w", err)
		}
	case sig := <-quit:
		s.Log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.Hub.Stop()
	err := httpServer.Shutdown(ctx)
	s.close()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.Log.Info("server stopped")
	return nil
}

// ginMode maps APP_ENV onto gin's modes. Test mode silences gin's debug
// route dump and warnings.
func ginMode(cfg *config.Config) string {
	switch {
	case cfg.IsProduction():
		return gin.ReleaseMode
	case cfg.IsTest():
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (s *Server) close() {
	if err := s.Redis.Close(); err != nil {
		s.Log.WithError(err).Warn("closing redis")
	}
	if err := s.DB.Close(); err != nil {
		s.Log.WithError(err).Warn("closing database")
	}
}
