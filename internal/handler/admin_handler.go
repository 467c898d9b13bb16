package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/labdesk/lab-ledger-api/internal/models"
	"github.com/labdesk/lab-ledger-api/internal/service"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
)

type dashboardProvider interface {
	Summary(ctx context.Context) (*models.DashboardSummary, bool, error)
}

type reportProvider interface {
	Entries(ctx context.Context, date string) ([]models.EntryDetail, error)
	ExportCSV(ctx context.Context, date string) (*service.Export, error)
	ExportPDF(ctx context.Context, date string) (*service.Export, error)
}

type rosterService interface {
	List(ctx context.Context) ([]models.Student, error)
	Register(ctx context.Context, req service.RegisterStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id int64) (*models.Student, error)
}

// AdminHandler serves the dashboard, entry listings, roster management
// and exports behind the session middleware.
type AdminHandler struct {
	dashboards dashboardProvider
	reports    reportProvider
	students   rosterService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(dashboards dashboardProvider, reports reportProvider, students rosterService) *AdminHandler {
	return &AdminHandler{dashboards: dashboards, reports: reports, students: students}
}

// Dashboard renders today's occupancy summary.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	summary, _, err := h.dashboards.Summary(c.Request.Context())
	if err != nil {
		failPage(c, err)
		return
	}

	data := gin.H{"Summary": summary}
	if claims := sessionFromContext(c); claims != nil {
		data["Admin"] = claims.Username
	}
	render(c, http.StatusOK, "admin_dashboard.html", data)
}

// Entries renders the entry listing, optionally filtered by date.
func (h *AdminHandler) Entries(c *gin.Context) {
	date := strings.TrimSpace(c.Query("filter_date"))

	entries, err := h.reports.Entries(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, appErrors.ErrValidation) {
			redirectWithError(c, "/admin/entries", err)
			return
		}
		failPage(c, err)
		return
	}

	render(c, http.StatusOK, "admin_entries.html", gin.H{
		"Entries":    entries,
		"FilterDate": date,
	})
}

// Students renders the roster page.
func (h *AdminHandler) Students(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		failPage(c, err)
		return
	}
	render(c, http.StatusOK, "admin_students.html", gin.H{"Students": students})
}

// CreateStudent registers a new student from the roster form.
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req service.RegisterStudentRequest
	_ = c.ShouldBind(&req)

	student, err := h.students.Register(c.Request.Context(), req)
	if err != nil {
		redirectWithError(c, "/admin/students", err)
		return
	}

	redirectWithNotice(c, "/admin/students",
		"Student '"+student.Name+"' added successfully.", appErrors.SeveritySuccess)
}

// DeleteStudent removes a student from the roster.
func (h *AdminHandler) DeleteStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		redirectWithNotice(c, "/admin/students", "Student not found.", appErrors.SeverityDanger)
		return
	}

	student, err := h.students.Delete(c.Request.Context(), id)
	if err != nil {
		redirectWithError(c, "/admin/students", err)
		return
	}

	redirectWithNotice(c, "/admin/students",
		"Student '"+student.Name+"' deleted.", appErrors.SeveritySuccess)
}

// Export streams the filtered entries as a download, CSV unless
// format=pdf is requested.
func (h *AdminHandler) Export(c *gin.Context) {
	date := strings.TrimSpace(c.Query("filter_date"))

	renderFn := h.reports.ExportCSV
	if c.Query("format") == "pdf" {
		renderFn = h.reports.ExportPDF
	}

	exp, err := renderFn(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, appErrors.ErrValidation) {
			redirectWithError(c, "/admin/entries", err)
			return
		}
		failPage(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+exp.Filename)
	c.Data(http.StatusOK, exp.ContentType, exp.Body)
}
