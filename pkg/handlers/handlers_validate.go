package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shopops/roster-api-go/pkg/dates"
	"github.com/shopops/roster-api-go/pkg/models"
)

// ValidateWeek checks a proposed week payload without touching the
// store, so clients can surface problems before an explicit save.
func (h *Handler) ValidateWeek(c *gin.Context) {
	var input struct {
		WeekStart   dates.Date               `json:"week_start"`
		Assignments []models.ShiftAssignment `json:"assignments"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if input.WeekStart.IsZero() {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "week_start is required"})
		return
	}

	weekEnd := input.WeekStart.AddDays(6)
	seen := make(map[string]bool)
	for _, a := range input.Assignments {
		if a.EmployeeID == 0 {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "assignment missing employee_id"})
			return
		}
		if !a.Date.Within(input.WeekStart, weekEnd) {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "assignment date " + a.Date.String() + " outside the week"})
			return
		}
		startMin, err := dates.ParseClock(a.StartTime)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
			return
		}
		endMin, err := dates.ParseClock(a.EndTime)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
			return
		}
		if endMin <= startMin {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "assignment on " + a.Date.String() + " ends before it starts"})
			return
		}

		// One shift per employee per date: duplicates would
		// double-book the same person on the same day.
		dupKey := a.Date.String() + ":" + strconv.FormatUint(uint64(a.EmployeeID), 10)
		if seen[dupKey] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "duplicate assignment for employee on " + a.Date.String()})
			return
		}
		seen[dupKey] = true
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"assignment_count": len(input.Assignments),
			"week_start":       input.WeekStart.String(),
		},
	})
}
