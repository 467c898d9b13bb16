package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/labdesk/lab-ledger-api/internal/models"
	"github.com/labdesk/lab-ledger-api/internal/service"
	"github.com/labdesk/lab-ledger-api/internal/web"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
	"github.com/labdesk/lab-ledger-api/pkg/flash"
)

type fakeLedger struct {
	checkInResult  *service.CheckInResult
	checkInErr     error
	checkOutResult *service.CheckOutResult
	checkOutErr    error
	lastCheckIn    service.CheckInRequest
	lastCheckOut   service.CheckOutRequest
}

func (f *fakeLedger) CheckIn(_ context.Context, req service.CheckInRequest) (*service.CheckInResult, error) {
	f.lastCheckIn = req
	return f.checkInResult, f.checkInErr
}

func (f *fakeLedger) CheckOut(_ context.Context, req service.CheckOutRequest) (*service.CheckOutResult, error) {
	f.lastCheckOut = req
	return f.checkOutResult, f.checkOutErr
}

func newKioskRouter(ledger *fakeLedger, labName string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewEntryHandler(ledger, labName)

	router := gin.New()
	router.SetHTMLTemplate(web.Templates())
	router.GET("/", h.Index)
	router.POST("/entry", h.CheckIn)
	router.POST("/exit", h.CheckOut)
	return router
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// flashNotice decodes the one-shot notice cookie from the response.
// SetCookie query-escapes values, so unescape before the base64 pass.
func flashNotice(t *testing.T, rec *httptest.ResponseRecorder) flash.Notice {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name != "lab_notice" || ck.Value == "" {
			continue
		}
		raw, err := url.QueryUnescape(ck.Value)
		if err != nil {
			t.Fatalf("unescape notice cookie: %v", err)
		}
		decoded, err := base64.URLEncoding.DecodeString(raw)
		if err != nil {
			t.Fatalf("decode notice cookie: %v", err)
		}
		var n flash.Notice
		if err := json.Unmarshal(decoded, &n); err != nil {
			t.Fatalf("unmarshal notice cookie: %v", err)
		}
		return n
	}
	t.Fatalf("no notice cookie in response")
	return flash.Notice{}
}

func noticeCookie(message, severity string) *http.Cookie {
	payload, _ := json.Marshal(flash.Notice{Message: message, Severity: severity})
	return &http.Cookie{Name: "lab_notice", Value: base64.URLEncoding.EncodeToString(payload)}
}

func TestEntryHandlerIndexRendersNotice(t *testing.T) {
	router := newKioskRouter(&fakeLedger{}, "Physics Lab")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(noticeCookie("Welcome, Asha Rao! Assigned to System PC-07. Time In: 09:00:00.", "success"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Physics Lab Entry")
	assert.Contains(t, body, "notice-success")
	assert.Contains(t, body, "Welcome, Asha Rao! Assigned to System PC-07. Time In: 09:00:00.")
}

func TestEntryHandlerCheckInSuccess(t *testing.T) {
	ledger := &fakeLedger{checkInResult: &service.CheckInResult{
		Student:  models.Student{ID: 1, Name: "Asha Rao", RegNo: "CS101", Department: "CSE"},
		SystemNo: "PC-07",
		TimeIn:   "09:00:00",
		Date:     "2024-03-14",
	}}
	router := newKioskRouter(ledger, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/entry", url.Values{"reg_no": {"cs101"}, "system_no": {"PC-07"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "cs101", ledger.lastCheckIn.RegNo)
	assert.Equal(t, "PC-07", ledger.lastCheckIn.SystemNo)

	notice := flashNotice(t, rec)
	assert.Equal(t, "Welcome, Asha Rao! Assigned to System PC-07. Time In: 09:00:00.", notice.Message)
	assert.Equal(t, "success", notice.Severity)
}

func TestEntryHandlerCheckInConflict(t *testing.T) {
	ledger := &fakeLedger{checkInErr: appErrors.Clone(appErrors.ErrWorkstationOccupied,
		"System PC-07 is already occupied by Asha Rao. Please choose another system.")}
	router := newKioskRouter(ledger, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/entry", url.Values{"reg_no": {"20EC042"}, "system_no": {"PC-07"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	notice := flashNotice(t, rec)
	assert.Equal(t, "System PC-07 is already occupied by Asha Rao. Please choose another system.", notice.Message)
	assert.Equal(t, "warning", notice.Severity)
}

func TestEntryHandlerCheckOutSuccess(t *testing.T) {
	ledger := &fakeLedger{checkOutResult: &service.CheckOutResult{
		Student: models.Student{ID: 1, Name: "Asha Rao", RegNo: "CS101"},
		TimeOut: "10:30:00",
		Date:    "2024-03-14",
	}}
	router := newKioskRouter(ledger, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/exit", url.Values{"reg_no": {"CS101"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "CS101", ledger.lastCheckOut.RegNo)

	notice := flashNotice(t, rec)
	assert.Equal(t, "Goodbye, Asha Rao! Time Out recorded at 10:30:00.", notice.Message)
	assert.Equal(t, "success", notice.Severity)
}

func TestEntryHandlerCheckOutNoOpenEntry(t *testing.T) {
	ledger := &fakeLedger{checkOutErr: appErrors.Clone(appErrors.ErrNoOpenEntry,
		"No open entry found for CS101 today. Please check in first.")}
	router := newKioskRouter(ledger, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postForm("/exit", url.Values{"reg_no": {"CS101"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	notice := flashNotice(t, rec)
	assert.Equal(t, "No open entry found for CS101 today. Please check in first.", notice.Message)
	assert.Equal(t, "info", notice.Severity)
}
