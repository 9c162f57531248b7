package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Register installs every route on the engine. Shared by the server
// binary and the serverless entrypoint.
func Register(r *gin.Engine, h *Handler) {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Roster Scheduler API",
			"version": "1.3.0",
		})
	})

	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	// Roster Endpoints
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.GET("/employees", h.ListEmployees)
		api.POST("/employees", h.CreateEmployee)
		api.PUT("/employees/:id", h.UpdateEmployee)
		api.DELETE("/employees/:id", h.DeactivateEmployee)

		api.GET("/availability", h.ListAvailability)
		api.PUT("/availability", h.UpsertAvailability)
		api.DELETE("/availability/:id", h.DeleteAvailability)

		api.GET("/templates", h.ListTemplates)
		api.PUT("/templates", h.UpsertTemplate)

		api.GET("/timeoff/employee/:employeeID", h.ListTimeOff)
		api.POST("/timeoff", h.CreateTimeOff)
		api.POST("/timeoff/:id/expand", h.ExpandTimeOff)
		api.POST("/timeoff/:id/occurrences", h.CreateOccurrence)
		api.DELETE("/timeoff/:id", h.DeleteTimeOff)
		api.DELETE("/timeoff/:id/series", h.DeleteTimeOffSeries)
		api.DELETE("/timeoff/:id/instance", h.DeleteTimeOffInstance)

		api.GET("/schedule/:week", h.GetWeek)
		api.POST("/schedule/:week/generate", h.GenerateWeek)
		api.PUT("/schedule/:week", h.SaveWeek)
		api.POST("/conflicts/classify", h.ClassifyConflicts)

		api.POST("/validate", h.ValidateWeek)
		api.GET("/usage", h.GetMyUsage)
	}
}
