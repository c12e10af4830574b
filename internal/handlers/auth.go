package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/thereayou/warbler/internal/database"
	"github.com/thereayou/warbler/internal/handlers/dto"
	"github.com/thereayou/warbler/internal/middleware"
	"github.com/thereayou/warbler/internal/monitoring"
	"github.com/thereayou/warbler/internal/services"
	"github.com/thereayou/warbler/pkg/auth"
)

const (
	msgDuplicateUser      = "Username or email already taken"
	msgInvalidCredentials = "Invalid credentials."
	msgInvalidForm        = "Please check the form and try again."
)

type AuthHandler struct {
	users      *services.UserService
	jwtManager *auth.JWTManager
	blacklist  auth.Blacklist
	log        logrus.FieldLogger
}

func NewAuthHandler(users *services.UserService, jwtMgr *auth.JWTManager, blacklist auth.Blacklist, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtMgr, blacklist: blacklist, log: log}
}

func (h *AuthHandler) SignupPage(c *gin.Context) {
	render(c, http.StatusOK, "signup.html", Page{Title: "Sign up", Form: dto.SignupForm{}})
}

// Signup creates the account and logs it in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var form dto.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		render(c, http.StatusBadRequest, "signup.html", Page{Title: "Sign up", Form: form, Error: msgInvalidForm})
		return
	}

	user, err := h.users.Signup(c.Request.Context(), services.SignupRequest{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	})
	if errors.Is(err, database.ErrDuplicateEntry) {
		form.Password = ""
		render(c, http.StatusBadRequest, "signup.html", Page{Title: "Sign up", Form: form, Error: msgDuplicateUser})
		return
	}
	if err != nil {
		serverError(c, h.log, err, "signup failed")
		return
	}

	if err := middleware.Login(c, user); err != nil {
		serverError(c, h.log, err, "could not start session")
		return
	}
	monitoring.SignupSuccess.Inc()
	h.log.WithField("user_id", user.ID).Info("user signed up")
	redirect(c, "/")
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	render(c, http.StatusOK, "login.html", Page{Title: "Log in", Form: dto.LoginForm{}})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form dto.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		monitoring.LoginFailure.WithLabelValues("invalid_form").Inc()
		form.Password = ""
		render(c, http.StatusBadRequest, "login.html", Page{Title: "Log in", Form: form, Error: msgInvalidForm})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		serverError(c, h.log, err, "authenticate failed")
		return
	}
	if user == nil {
		monitoring.LoginFailure.WithLabelValues("invalid_credentials").Inc()
		form.Password = ""
		render(c, http.StatusUnauthorized, "login.html", Page{Title: "Log in", Form: form, Error: msgInvalidCredentials})
		return
	}

	if err := middleware.Login(c, user); err != nil {
		serverError(c, h.log, err, "could not start session")
		return
	}
	monitoring.LoginSuccess.Inc()
	middleware.AddFlash(c, "success", "Hello, "+user.Username+"!")
	redirect(c, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		serverError(c, h.log, err, "could not end session")
		return
	}
	middleware.AddFlash(c, "success", "You have successfully logged out.")
	redirect(c, "/login")
}

// APILogin issues a bearer token for the JSON API and the live feed.
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req dto.LoginForm
	if err := c.ShouldBindJSON(&req); err != nil {
		monitoring.LoginFailure.WithLabelValues("invalid_form").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		apiError(c, h.log, err, "authentication failed")
		return
	}
	if user == nil {
		monitoring.LoginFailure.WithLabelValues("invalid_credentials").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := h.jwtManager.Generate(user.ID)
	if err != nil {
		apiError(c, h.log, err, "could not generate token")
		return
	}

	monitoring.LoginSuccess.Inc()
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user, nil),
	})
}

// APILogout blacklists the token until it would have expired anyway.
func (h *AuthHandler) APILogout(c *gin.Context) {
	rawToken := c.GetString(middleware.TokenKey)

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.blacklist.Revoke(c.Request.Context(), rawToken, time.Until(exp)); err != nil {
		apiError(c, h.log, err, "could not revoke token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
