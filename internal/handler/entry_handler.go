package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labdesk/lab-ledger-api/internal/service"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
)

type ledgerService interface {
	CheckIn(ctx context.Context, req service.CheckInRequest) (*service.CheckInResult, error)
	CheckOut(ctx context.Context, req service.CheckOutRequest) (*service.CheckOutResult, error)
}

// EntryHandler serves the kiosk page and its check-in/check-out forms.
type EntryHandler struct {
	ledger  ledgerService
	labName string
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledger ledgerService, labName string) *EntryHandler {
	if labName == "" {
		labName = "Computer Lab"
	}
	return &EntryHandler{ledger: ledger, labName: labName}
}

// Index renders the kiosk landing page.
func (h *EntryHandler) Index(c *gin.Context) {
	render(c, http.StatusOK, "index.html", gin.H{"LabName": h.labName})
}

// CheckIn records a student entering the lab.
func (h *EntryHandler) CheckIn(c *gin.Context) {
	var req service.CheckInRequest
	// Missing form fields are reported by the service, not the binder.
	_ = c.ShouldBind(&req)

	result, err := h.ledger.CheckIn(c.Request.Context(), req)
	if err != nil {
		redirectWithError(c, "/", err)
		return
	}

	message := fmt.Sprintf("Welcome, %s! Assigned to System %s. Time In: %s.",
		result.Student.Name, result.SystemNo, result.TimeIn)
	redirectWithNotice(c, "/", message, appErrors.SeveritySuccess)
}

// CheckOut closes the student's open entry for today.
func (h *EntryHandler) CheckOut(c *gin.Context) {
	var req service.CheckOutRequest
	_ = c.ShouldBind(&req)

	result, err := h.ledger.CheckOut(c.Request.Context(), req)
	if err != nil {
		redirectWithError(c, "/", err)
		return
	}

	message := fmt.Sprintf("Goodbye, %s! Time Out recorded at %s.",
		result.Student.Name, result.TimeOut)
	redirectWithNotice(c, "/", message, appErrors.SeveritySuccess)
}
