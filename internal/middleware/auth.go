package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/warbler/pkg/auth"
)

const (
	UserIDKey = "userID"
	TokenKey  = "token"
)

// APIAuth checks the bearer token on JSON API requests.
func APIAuth(jwtManager *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		authorize(c, jwtManager, blacklist, token)
	}
}

// WSAuth accepts the token from the query string, since browsers cannot
// set headers on a websocket handshake. A bearer header also works.
func WSAuth(jwtManager *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token, _ = auth.ExtractTokenFromHeader(c.Request)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		authorize(c, jwtManager, blacklist, token)
	}
}

func authorize(c *gin.Context, jwtManager *auth.JWTManager, blacklist auth.Blacklist, token string) {
	revoked, err := blacklist.IsRevoked(c.Request.Context(), token)
	if err != nil {
		logrus.WithError(err).Error("token blacklist lookup failed")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is blacklisted"})
		return
	}
	if revoked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is blacklisted"})
		return
	}

	userID, err := jwtManager.UserID(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.Set(UserIDKey, userID)
	c.Set(TokenKey, token)
	c.Next()
}

// AuthUserID returns the user id stored by APIAuth or WSAuth.
func AuthUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
