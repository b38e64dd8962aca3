package handler

import (
	"net/http"
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
	"github.com/DEFRA/water-abstraction-ui-sub001/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

// GetSignin renders the sign-in form.
func (h *AuthHandler) GetSignin(c *gin.Context) {
	c.HTML(http.StatusOK, "signin.html", gin.H{
		"title": "Sign in",
	})
}

// PostSignin validates credentials, sets the session cookie and sends the
// user to the upload page.
func (h *AuthHandler) PostSignin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user := h.config.FindUser(username)
	if user == nil {
		h.signinFailed(c)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		h.signinFailed(c)
		return
	}

	token, expiresAt, err := middleware.GenerateToken(user, &h.config.Auth)
	if err != nil {
		renderError(c)
		return
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", false, true)
	c.Redirect(http.StatusFound, "/returns/upload")
}

// GetSignout clears the session and returns to the sign-in form.
func (h *AuthHandler) GetSignout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/signin")
}

func (h *AuthHandler) signinFailed(c *gin.Context) {
	c.HTML(http.StatusUnauthorized, "signin.html", gin.H{
		"title":        "Sign in",
		"errorMessage": "Check your email address and password",
	})
}
