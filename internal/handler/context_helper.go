package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labdesk/lab-ledger-api/internal/middleware"
	"github.com/labdesk/lab-ledger-api/internal/models"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
	"github.com/labdesk/lab-ledger-api/pkg/flash"
)

// sessionFromContext pulls the admin session claims stored by the
// session middleware. Returns nil outside the admin group.
func sessionFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// redirectWithError flashes the error's notice and bounces to target.
func redirectWithError(c *gin.Context, target string, err error) {
	typed := appErrors.FromError(err)
	flash.Set(c, typed.Message, string(typed.Severity))
	c.Redirect(http.StatusSeeOther, target)
}

// redirectWithNotice flashes a message and bounces to target.
func redirectWithNotice(c *gin.Context, target, message string, severity appErrors.Severity) {
	flash.Set(c, message, string(severity))
	c.Redirect(http.StatusSeeOther, target)
}

// render merges any pending notice into data and renders the template.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if notice, ok := flash.Pop(c); ok {
		data["Notice"] = notice
	}
	c.HTML(status, name, data)
}

// failPage answers unrecoverable GET failures with a plain error body.
func failPage(c *gin.Context, err error) {
	typed := appErrors.FromError(err)
	c.String(typed.Status, typed.Message)
}
