package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labdesk/lab-ledger-api/internal/models"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
)

type authService interface {
	Login(username, password string) (string, error)
	ValidateSession(token string) (*models.SessionClaims, error)
	CookieName() string
	SessionTTL() time.Duration
}

// AuthHandler drives the admin login session.
type AuthHandler struct {
	auth authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth authService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginForm renders the login page. An already-authenticated admin is
// sent straight to the dashboard.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	if token, err := c.Cookie(h.auth.CookieName()); err == nil && token != "" {
		if _, err := h.auth.ValidateSession(token); err == nil {
			c.Redirect(http.StatusSeeOther, "/admin/dashboard")
			return
		}
	}
	render(c, http.StatusOK, "admin_login.html", gin.H{})
}

// Login checks the posted credentials and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	token, err := h.auth.Login(c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		redirectWithError(c, "/admin/login", err)
		return
	}

	maxAge := int(h.auth.SessionTTL().Seconds())
	c.SetCookie(h.auth.CookieName(), token, maxAge, "/", "", false, true)
	redirectWithNotice(c, "/admin/dashboard", "Welcome back, Admin!", appErrors.SeveritySuccess)
}

// Logout clears the admin session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(h.auth.CookieName(), "", -1, "/", "", false, true)
	redirectWithNotice(c, "/admin/login", "Logged out successfully.", appErrors.SeverityInfo)
}
