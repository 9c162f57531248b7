package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopops/roster-api-go/pkg/dates"
	"github.com/shopops/roster-api-go/pkg/models"
	"github.com/shopops/roster-api-go/pkg/schedule"
	"github.com/shopops/roster-api-go/pkg/scheduler"
)

func parseWeek(c *gin.Context) (dates.Date, bool) {
	week, err := dates.Parse(c.Param("week"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week must be a YYYY-MM-DD date"})
		return dates.Date{}, false
	}
	return week, true
}

// GetWeek returns the saved schedule for the week when one exists,
// otherwise a fresh, unsaved generation
func (h *Handler) GetWeek(c *gin.Context) {
	week, ok := parseWeek(c)
	if !ok {
		return
	}
	result, err := h.Schedule.LoadOrGenerate(week)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	result.Conflicts = scheduler.Classify(result.Conflicts)
	h.RecordUsage(c, len(result.Assignments), len(result.Conflicts))
	c.JSON(http.StatusOK, result)
}

// GenerateWeek always runs the engine, ignoring any saved rows; the
// output is never persisted here
func (h *Handler) GenerateWeek(c *gin.Context) {
	week, ok := parseWeek(c)
	if !ok {
		return
	}
	result, err := h.Schedule.GenerateWeek(week)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	result.Conflicts = scheduler.Classify(result.Conflicts)
	h.RecordUsage(c, len(result.Assignments), len(result.Conflicts))
	c.JSON(http.StatusOK, result)
}

// SaveWeek overwrites the week's saved rows with the provided set.
// This is how manual edits land: the client edits the assignment list
// and saves it whole.
func (h *Handler) SaveWeek(c *gin.Context) {
	week, ok := parseWeek(c)
	if !ok {
		return
	}
	var req struct {
		Assignments []models.ShiftAssignment `json:"assignments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Schedule.Save(week, req.Assignments); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, schedule.ErrInvalidAssignment) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Week saved",
		"week":    week,
		"count":   len(req.Assignments),
	})
}

// ClassifyConflicts ranks a conflict list by severity without
// regenerating anything
func (h *Handler) ClassifyConflicts(c *gin.Context) {
	var req struct {
		Conflicts []models.ConflictRecord `json:"conflicts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": scheduler.Classify(req.Conflicts)})
}
