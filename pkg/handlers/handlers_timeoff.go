package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopops/roster-api-go/pkg/dates"
	"github.com/shopops/roster-api-go/pkg/models"
	"github.com/shopops/roster-api-go/pkg/timeoff"
)

// timeOffStatus maps service errors onto HTTP codes. Store failures
// keep their operation/collection context in the body so the caller
// can decide whether to retry the whole operation.
func timeOffStatus(err error) int {
	var vErr *timeoff.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, timeoff.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeoff.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, timeoff.ErrNotRecurring):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListTimeOff returns requests for one employee, parents and instances
func (h *Handler) ListTimeOff(c *gin.Context) {
	id, ok := parseID(c, "employeeID")
	if !ok {
		return
	}
	rows, err := h.TimeOff.ListForEmployee(id)
	if err != nil {
		c.JSON(timeOffStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": rows})
}

// CreateTimeOff validates and stores a request (single or recurring parent)
func (h *Handler) CreateTimeOff(c *gin.Context) {
	var req models.TimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = 0
	req.ParentRequestID = nil
	if err := h.TimeOff.Create(&req); err != nil {
		c.JSON(timeOffStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// ExpandTimeOff materializes a recurring parent through the given date.
// Expansion is append-only; pass clear_existing to replace previously
// materialized instances instead of duplicating them.
func (h *Handler) ExpandTimeOff(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Until         dates.Date `json:"until"`
		ClearExisting bool       `json:"clear_existing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Until.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "until is required"})
		return
	}

	var cleared int64
	if req.ClearExisting {
		var err error
		cleared, err = h.TimeOff.ClearInstances(id)
		if err != nil {
			c.JSON(timeOffStatus(err), gin.H{"error": err.Error()})
			return
		}
	}

	created, err := h.TimeOff.Expand(id, req.Until)
	if err != nil {
		// The count is the source of truth for what did get inserted.
		c.JSON(timeOffStatus(err), gin.H{
			"error":   err.Error(),
			"created": created,
			"cleared": cleared,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "cleared": cleared})
}

// CreateOccurrence adds one off-grid instance of a recurring parent
func (h *Handler) CreateOccurrence(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Date dates.Date `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Date.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	inst, err := h.TimeOff.CreateOccurrence(id, req.Date)
	if err != nil {
		c.JSON(timeOffStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instance": inst})
}

// DeleteTimeOffInstance removes one materialized instance only
func (h *Handler) DeleteTimeOffInstance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.TimeOff.DeleteInstance(id); err != nil {
		c.JSON(timeOffStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Instance removed"})
}

// DeleteTimeOffSeries removes a recurring parent and all its instances
func (h *Handler) DeleteTimeOffSeries(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.TimeOff.DeleteSeries(id); err != nil {
		c.JSON(timeOffStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Series removed"})
}

// DeleteTimeOff removes a standalone request (series parents cascade)
func (h *Handler) DeleteTimeOff(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.TimeOff.Delete(id); err != nil {
		c.JSON(timeOffStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request removed"})
}
