package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/windwardhq/scheduling-api/internal/dto"
	"github.com/windwardhq/scheduling-api/internal/service"
	appErrors "github.com/windwardhq/scheduling-api/pkg/errors"
	"github.com/windwardhq/scheduling-api/pkg/response"
)

// QueueHandler wires the scheduling service to HTTP routes.
type QueueHandler struct {
	scheduling *service.SchedulingService
}

// NewQueueHandler constructs a QueueHandler.
func NewQueueHandler(scheduling *service.SchedulingService) *QueueHandler {
	return &QueueHandler{scheduling: scheduling}
}

// List godoc
// @Summary Teacher queues for a day
// @Tags Queues
// @Produce json
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /queues [get]
func (h *QueueHandler) List(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	queues, err := h.scheduling.QueueViews(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queues, nil)
}

// Slot godoc
// @Summary Propose the next available slot on a teacher's queue
// @Tags Queues
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param students query int true "Student group size"
// @Param from query string false "Earliest start (HH:MM), defaults to the configured submit time"
// @Success 200 {object} response.Envelope
// @Router /queues/{teacherId}/slot [get]
func (h *QueueHandler) Slot(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	students, err := strconv.Atoi(c.DefaultQuery("students", "1"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "students must be an integer"))
		return
	}

	proposal, err := h.scheduling.ProposeSlot(c.Request.Context(), date, c.Param("teacherId"), students, c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Schedule godoc
// @Summary Schedule a new lesson event on a teacher's queue
// @Tags Queues
// @Accept json
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param payload body dto.ScheduleEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /queues/{teacherId}/events [post]
func (h *QueueHandler) Schedule(c *gin.Context) {
	date := c.Query("date")
	var req dto.ScheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	if date == "" {
		date = req.Date
	}

	result, err := h.scheduling.ScheduleEvent(c.Request.Context(), date, c.Param("teacherId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
