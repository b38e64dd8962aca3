package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
	"github.com/DEFRA/water-abstraction-ui-sub001/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the name of the signed session cookie set at sign-in.
const SessionCookie = "wrp_session"

// Claims represents the JWT claims
type Claims struct {
	Username    string `json:"username"`
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token for a user
func GenerateToken(user *config.User, cfg *config.AuthConfig) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.TokenExpireHours) * time.Hour)

	claims := Claims{
		Username:    user.Username,
		CompanyID:   user.CompanyID,
		CompanyName: user.CompanyName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// AuthMiddleware validates the session and extracts user info. The token is
// read from the session cookie, falling back to a Bearer header. Requests
// without a valid session are redirected to the sign-in page.
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c)
		if tokenString == "" {
			c.Redirect(http.StatusFound, "/signin")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			c.Redirect(http.StatusFound, "/signin")
			c.Abort()
			return
		}

		// Store user info in context
		c.Set("username", claims.Username)
		c.Set("company_id", claims.CompanyID)
		c.Set("company_name", claims.CompanyName)

		// Propagate to the request context for logging
		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, logger.UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, logger.CompanyIDKey, claims.CompanyID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// GetUsername gets the username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get("username"); exists {
		return username.(string)
	}
	return ""
}

// GetCompanyID gets the acting company id from context
func GetCompanyID(c *gin.Context) string {
	if companyID, exists := c.Get("company_id"); exists {
		return companyID.(string)
	}
	return ""
}

// GetCompanyName gets the acting company display name from context
func GetCompanyName(c *gin.Context) string {
	if companyName, exists := c.Get("company_name"); exists {
		return companyName.(string)
	}
	return ""
}
