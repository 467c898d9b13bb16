package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labdesk/lab-ledger-api/internal/service"
	"github.com/labdesk/lab-ledger-api/pkg/config"
)

func newSessionTestRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth, err := service.NewAuthService(
		config.SessionConfig{Secret: "test_secret", TTL: time.Hour, Cookie: "lab_admin_session"},
		config.AdminConfig{Username: "admin", Password: "admin123"},
		nil,
	)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	router := gin.New()
	router.GET("/admin/dashboard", AdminSession(auth), func(c *gin.Context) {
		if _, ok := c.Get(ContextAdminKey); !ok {
			t.Fatal("expected session claims in context")
		}
		c.Status(http.StatusNoContent)
	})
	return router, auth
}

func TestAdminSessionRedirectsAnonymous(t *testing.T) {
	router, _ := newSessionTestRouter(t)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if got := recorder.Header().Get("Location"); got != "/admin/login" {
		t.Fatalf("unexpected redirect target: %s", got)
	}
	noticeSet := false
	for _, cookie := range recorder.Header().Values("Set-Cookie") {
		if strings.HasPrefix(cookie, "lab_notice=") {
			noticeSet = true
		}
	}
	if !noticeSet {
		t.Fatal("expected a notice cookie on redirect")
	}
}

func TestAdminSessionAllowsValidCookie(t *testing.T) {
	router, auth := newSessionTestRouter(t)

	token, err := auth.Login("admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName(), Value: token})
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestAdminSessionClearsBadCookie(t *testing.T) {
	router, auth := newSessionTestRouter(t)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName(), Value: "not-a-real-token"})
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	cleared := false
	for _, cookie := range recorder.Header().Values("Set-Cookie") {
		if strings.HasPrefix(cookie, auth.CookieName()+"=") && strings.Contains(cookie, "Max-Age=0") {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be cleared")
	}
}
