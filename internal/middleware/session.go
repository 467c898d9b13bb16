package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labdesk/lab-ledger-api/internal/service"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
	"github.com/labdesk/lab-ledger-api/pkg/flash"
)

// ContextAdminKey is the gin context key storing the admin session claims.
const ContextAdminKey = "adminSession"

// AdminSession guards the admin pages. Requests without a valid session
// cookie are bounced to the login page with a notice.
func AdminSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(authService.CookieName())
		if err != nil || token == "" {
			redirectToLogin(c)
			return
		}

		claims, err := authService.ValidateSession(token)
		if err != nil {
			// stale or forged cookie, drop it
			c.SetCookie(authService.CookieName(), "", -1, "/", "", false, true)
			redirectToLogin(c)
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	flash.Set(c, "Please login to access the admin panel.", string(appErrors.SeverityWarning))
	c.Redirect(http.StatusSeeOther, "/admin/login")
	c.Abort()
}
