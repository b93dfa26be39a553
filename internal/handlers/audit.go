package handlers

import (
	"net/http"

	"ssdf-compass/internal/database"
	"ssdf-compass/internal/models"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs — журнал в рамках организации; доступ ограничен роутером
// (admin и viewer, как у остальных отчётных экранов).
func ListAuditLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	q := database.DB.
		Where("organization_id = ?", user.OrganizationID).
		Order("created_at desc").
		Limit(200)

	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if c.Query("failed") == "true" {
		q = q.Where("success = false")
	}

	var logs []models.AuditLog
	q.Find(&logs)

	c.JSON(http.StatusOK, logs)
}
