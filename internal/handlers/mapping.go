package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"ssdf-compass/internal/apperr"
	"ssdf-compass/internal/database"
	"ssdf-compass/internal/derivation"
	"ssdf-compass/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Маппинги SSDF→CIS управляются админом (роль гарантируется роутером).
// Любое изменение триггерит пересчёт целей старой И новой ссылки.

func ListMappings(c *gin.Context) {
	var mappings []models.SsdfCisMapping
	database.DB.
		Preload("SsdfTask").
		Order("ssdf_task_id asc, id asc").
		Find(&mappings)

	c.JSON(http.StatusOK, mappings)
}

type mappingForm struct {
	SsdfTaskID     string             `json:"ssdfTaskId"`
	CisControlID   string             `json:"cisControlId"`
	CisSafeguardID string             `json:"cisSafeguardId"`
	MappingType    models.MappingType `json:"mappingType"`
	Weight         float64            `json:"weight"`
}

// validateMappingRefs — ссылки маппинга должны существовать в справочниках.
func validateMappingRefs(m *models.SsdfCisMapping) error {
	var task models.SsdfTask
	if err := database.DB.First(&task, "id = ?", m.SsdfTaskID).Error; err != nil {
		return apperr.NotFound("ssdf task", m.SsdfTaskID)
	}
	if m.CisControlID != "" {
		var ctrl models.CisControl
		if err := database.DB.First(&ctrl, "id = ?", m.CisControlID).Error; err != nil {
			return apperr.NotFound("cis control", m.CisControlID)
		}
	}
	if m.CisSafeguardID != "" {
		var sg models.CisSafeguard
		if err := database.DB.First(&sg, "id = ?", m.CisSafeguardID).Error; err != nil {
			return apperr.NotFound("cis safeguard", m.CisSafeguardID)
		}
	}
	return nil
}

func CreateMapping(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var form mappingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, apperr.Validation("invalid payload"))
		return
	}

	m := models.SsdfCisMapping{
		SsdfTaskID:     form.SsdfTaskID,
		CisControlID:   form.CisControlID,
		CisSafeguardID: form.CisSafeguardID,
		MappingType:    form.MappingType,
		Weight:         form.Weight,
	}
	if err := m.Validate(); err != nil {
		abortWithError(c, err)
		return
	}
	if err := validateMappingRefs(&m); err != nil {
		abortWithError(c, err)
		return
	}

	if err := database.DB.Create(&m).Error; err != nil {
		abortWithError(c, err)
		return
	}

	if err := derivation.RecalcMappingChange(database.DB, nil, &m); err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actorFrom(c, user), "create", "mapping", uintToStr(m.ID),
		nil, mappingAudit(m), false)

	c.JSON(http.StatusCreated, m)
}

func UpdateMapping(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortWithError(c, apperr.Validation("invalid mapping id %q", c.Param("id")))
		return
	}

	var m models.SsdfCisMapping
	dbErr := database.DB.First(&m, id).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		abortWithError(c, apperr.NotFound("mapping", c.Param("id")))
		return
	}
	if dbErr != nil {
		abortWithError(c, dbErr)
		return
	}

	var form mappingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, apperr.Validation("invalid payload"))
		return
	}

	before := m
	m.SsdfTaskID = form.SsdfTaskID
	m.CisControlID = form.CisControlID
	m.CisSafeguardID = form.CisSafeguardID
	m.MappingType = form.MappingType
	m.Weight = form.Weight

	if err := m.Validate(); err != nil {
		abortWithError(c, err)
		return
	}
	if err := validateMappingRefs(&m); err != nil {
		abortWithError(c, err)
		return
	}

	if err := database.DB.Save(&m).Error; err != nil {
		abortWithError(c, err)
		return
	}

	// пересчёт целей по старой и новой ссылке
	if err := derivation.RecalcMappingChange(database.DB, &before, &m); err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actorFrom(c, user), "update", "mapping", uintToStr(m.ID),
		mappingAudit(before), mappingAudit(m), false)

	c.JSON(http.StatusOK, m)
}

func DeleteMapping(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortWithError(c, apperr.Validation("invalid mapping id %q", c.Param("id")))
		return
	}

	var m models.SsdfCisMapping
	dbErr := database.DB.First(&m, id).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		abortWithError(c, apperr.NotFound("mapping", c.Param("id")))
		return
	}
	if dbErr != nil {
		abortWithError(c, dbErr)
		return
	}

	if err := database.DB.Delete(&m).Error; err != nil {
		abortWithError(c, err)
		return
	}

	if err := derivation.RecalcMappingChange(database.DB, &m, nil); err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actorFrom(c, user), "delete", "mapping", uintToStr(m.ID),
		mappingAudit(m), nil, false)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func mappingAudit(m models.SsdfCisMapping) map[string]any {
	return map[string]any{
		"ssdfTaskId":     m.SsdfTaskID,
		"cisControlId":   m.CisControlID,
		"cisSafeguardId": m.CisSafeguardID,
		"mappingType":    m.MappingType,
		"weight":         m.Weight,
	}
}
