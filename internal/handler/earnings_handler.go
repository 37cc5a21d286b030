package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/windwardhq/scheduling-api/internal/service"
	appErrors "github.com/windwardhq/scheduling-api/pkg/errors"
	"github.com/windwardhq/scheduling-api/pkg/response"
)

// EarningsHandler serves the daily earnings report.
type EarningsHandler struct {
	earnings *service.EarningsService
}

// NewEarningsHandler constructs an EarningsHandler.
func NewEarningsHandler(earnings *service.EarningsService) *EarningsHandler {
	return &EarningsHandler{earnings: earnings}
}

// Daily godoc
// @Summary Daily per-teacher earnings report
// @Tags Earnings
// @Produce json
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param format query string false "Output format (json, csv, pdf)"
// @Success 200 {object} response.Envelope
// @Router /earnings/daily [get]
func (h *EarningsHandler) Daily(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	report, err := h.earnings.Daily(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "csv":
		payload, err := h.earnings.RenderCSV(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=earnings-%s.csv", report.Date))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.earnings.RenderPDF(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=earnings-%s.pdf", report.Date))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.JSON(c, http.StatusOK, report, nil)
	}
}
