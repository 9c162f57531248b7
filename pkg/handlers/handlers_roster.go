package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopops/roster-api-go/pkg/models"
)

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a numeric id"})
		return 0, false
	}
	return uint(id), true
}

// ListEmployees returns the roster in id order
func (h *Handler) ListEmployees(c *gin.Context) {
	var roster []models.Employee
	q := h.DB.Order("id")
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&roster).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list employees"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": roster})
}

// CreateEmployee adds a roster member
func (h *Handler) CreateEmployee(c *gin.Context) {
	var emp models.Employee
	if err := c.ShouldBindJSON(&emp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if emp.FullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name is required"})
		return
	}
	switch emp.Role {
	case models.RoleStaff, models.RoleTech, models.RoleManager:
	case "":
		emp.Role = models.RoleStaff
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be staff, tech or manager"})
		return
	}
	emp.ID = 0
	emp.Active = true
	if err := h.DB.Create(&emp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create employee"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": emp})
}

// UpdateEmployee patches a roster member
func (h *Handler) UpdateEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var emp models.Employee
	if err := h.DB.First(&emp, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}
	// Bind over the loaded row so omitted fields keep their stored
	// values.
	if err := c.ShouldBindJSON(&emp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch emp.Role {
	case models.RoleStaff, models.RoleTech, models.RoleManager:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be staff, tech or manager"})
		return
	}
	emp.ID = id
	if err := h.DB.Save(&emp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update employee"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": emp})
}

// DeactivateEmployee soft-removes a roster member; their history stays
func (h *Handler) DeactivateEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := h.DB.Model(&models.Employee{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not deactivate employee"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deactivated"})
}

// ListAvailability returns availability entries, optionally for one employee
func (h *Handler) ListAvailability(c *gin.Context) {
	var entries []models.AvailabilityEntry
	q := h.DB.Order("employee_id, weekday")
	if emp := c.Query("employee_id"); emp != "" {
		q = q.Where("employee_id = ?", emp)
	}
	if err := q.Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": entries})
}

// UpsertAvailability creates or replaces the one entry per employee+weekday
func (h *Handler) UpsertAvailability(c *gin.Context) {
	var entry models.AvailabilityEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if entry.EmployeeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id is required"})
		return
	}
	if entry.Weekday < 0 || entry.Weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekday must be 0..6"})
		return
	}
	switch entry.Status {
	case models.AvailabilityGreen, models.AvailabilityYellow, models.AvailabilityRed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be GREEN, YELLOW or RED"})
		return
	}
	switch entry.PartialStatus {
	case models.AvailabilityUnknown, models.AvailabilityGreen, models.AvailabilityYellow, models.AvailabilityRed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "partial_status must be GREEN, YELLOW, RED or empty"})
		return
	}

	entry.ID = 0
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "weekday"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":         entry.Status,
			"partial_status": entry.PartialStatus,
			"earliest_start": entry.EarliestStart,
			"latest_end":     entry.LatestEnd,
			"notes":          entry.Notes,
		}),
	}).Create(&entry).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": entry})
}

// DeleteAvailability removes one entry, returning that day to "unknown"
func (h *Handler) DeleteAvailability(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := h.DB.Delete(&models.AvailabilityEntry{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete availability"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Availability entry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability entry removed"})
}

// ListTemplates returns the per-weekday staffing templates
func (h *Handler) ListTemplates(c *gin.Context) {
	var templates []models.StaffingTemplate
	if err := h.DB.Order("weekday").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// UpsertTemplate creates or replaces the one template row per weekday
func (h *Handler) UpsertTemplate(c *gin.Context) {
	var tmpl models.StaffingTemplate
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tmpl.Weekday < 0 || tmpl.Weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekday must be 0..6"})
		return
	}
	if tmpl.RequiredManagers < 0 || tmpl.RequiredStaff < 0 || tmpl.RequiredPartial < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "required counts must not be negative"})
		return
	}

	tmpl.ID = 0
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "weekday"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"open_time":         tmpl.OpenTime,
			"close_time":        tmpl.CloseTime,
			"required_managers": tmpl.RequiredManagers,
			"required_staff":    tmpl.RequiredStaff,
			"required_partial":  tmpl.RequiredPartial,
			"active":            tmpl.Active,
			"updated_at":        gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&tmpl).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tmpl})
}
