package handlers

import (
	"errors"
	"net/http"

	"ssdf-compass/internal/apperr"
	"ssdf-compass/internal/database"
	"ssdf-compass/internal/models"
	"ssdf-compass/internal/release"
	"ssdf-compass/internal/scoring"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListCisResults(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	a, err := loadAssessment(c, user)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var rows []models.AssessmentCisResult
	database.DB.
		Where("assessment_id = ?", a.ID).
		Order("cis_control_id asc, cis_safeguard_id asc").
		Find(&rows)

	type cisRow struct {
		models.AssessmentCisResult
		EffectiveStatus   models.TaskStatus `json:"effectiveStatus"`
		EffectiveMaturity int               `json:"effectiveMaturity"`
	}

	out := make([]cisRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, cisRow{
			AssessmentCisResult: r,
			EffectiveStatus:     r.EffectiveStatus(),
			EffectiveMaturity:   r.EffectiveMaturity(),
		})
	}

	c.JSON(http.StatusOK, out)
}

type overrideForm struct {
	CisControlID   string `json:"cisControlId"`
	CisSafeguardID string `json:"cisSafeguardId"`

	ManualStatus        *models.TaskStatus `json:"manualStatus"`
	ManualMaturityLevel *int               `json:"manualMaturityLevel"`
}

// resolveCisTarget — цель по форме: либо явный контрол, либо safeguard
// (контрол подставляется из справочника).
func resolveCisTarget(form overrideForm) (controlID, safeguardID string, err error) {
	hasControl := form.CisControlID != ""
	hasSafeguard := form.CisSafeguardID != ""
	if hasControl == hasSafeguard {
		return "", "", apperr.Validation("specify exactly one of cisControlId / cisSafeguardId")
	}
	if hasControl {
		return form.CisControlID, "", nil
	}
	var sg models.CisSafeguard
	if dbErr := database.DB.First(&sg, "id = ?", form.CisSafeguardID).Error; dbErr != nil {
		return "", "", apperr.NotFound("cis safeguard", form.CisSafeguardID)
	}
	return sg.CisControlID, sg.ID, nil
}

// gateCisWrite — общий гейт для мутаций результата CIS.
func gateCisWrite(c *gin.Context, user models.User, a models.Assessment, action, entityID string) (override bool, err error) {
	latest, err := latestRelease(a.ID)
	if err != nil {
		return false, err
	}
	relStatus := release.EffectiveStatus(latest)

	if !release.CanEdit(user.Role, relStatus, a.EditingMode) {
		permErr := apperr.Permission("role %q cannot edit assessment in state %s/%s", user.Role, relStatus, a.EditingMode)
		database.LogDenied(actorFrom(c, user), action, "cis_result", entityID, permErr.Error())
		return false, permErr
	}
	return release.IsOverrideEdit(user.Role, relStatus, a.EditingMode), nil
}

// SetCisOverride — ручной override производного результата. Оба ручных поля
// обязаны прийти вместе; производные поля не трогаются и продолжают
// пересчитываться независимо.
func SetCisOverride(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	a, err := loadAssessment(c, user)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var form overrideForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, apperr.Validation("invalid payload"))
		return
	}

	controlID, safeguardID, err := resolveCisTarget(form)
	if err != nil {
		abortWithError(c, err)
		return
	}
	entityID := controlID
	if safeguardID != "" {
		entityID = safeguardID
	}

	adminOverride, err := gateCisWrite(c, user, a, "override_set", entityID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// атомарность пары ручных значений
	if form.ManualStatus == nil || form.ManualMaturityLevel == nil {
		abortWithError(c, apperr.Validation("manualStatus and manualMaturityLevel must be supplied together"))
		return
	}
	if !models.ValidTaskStatus(*form.ManualStatus) {
		abortWithError(c, apperr.Validation("unknown task status %q", *form.ManualStatus))
		return
	}
	if *form.ManualMaturityLevel < 0 || *form.ManualMaturityLevel > scoring.MaxMaturityLevel {
		abortWithError(c, apperr.Validation("manual maturity level %d is outside [0,%d]", *form.ManualMaturityLevel, scoring.MaxMaturityLevel))
		return
	}

	var row models.AssessmentCisResult
	err = database.DB.
		Where("assessment_id = ? AND cis_control_id = ? AND cis_safeguard_id = ?", a.ID, controlID, safeguardID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		abortWithError(c, apperr.NotFound("cis result", entityID))
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	before := row
	row.ManualOverride = true
	row.ManualStatus = form.ManualStatus
	row.ManualMaturityLevel = form.ManualMaturityLevel

	if err := database.DB.Save(&row).Error; err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actorFrom(c, user), "override_set", "cis_result", entityID,
		cisResultAudit(before), cisResultAudit(row), adminOverride)

	c.JSON(http.StatusOK, row)
}

// ClearCisOverride — снятие override обнуляет оба ручных поля.
func ClearCisOverride(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	a, err := loadAssessment(c, user)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var form overrideForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, apperr.Validation("invalid payload"))
		return
	}

	controlID, safeguardID, err := resolveCisTarget(form)
	if err != nil {
		abortWithError(c, err)
		return
	}
	entityID := controlID
	if safeguardID != "" {
		entityID = safeguardID
	}

	adminOverride, err := gateCisWrite(c, user, a, "override_clear", entityID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var row models.AssessmentCisResult
	err = database.DB.
		Where("assessment_id = ? AND cis_control_id = ? AND cis_safeguard_id = ?", a.ID, controlID, safeguardID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		abortWithError(c, apperr.NotFound("cis result", entityID))
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	before := row
	row.ManualOverride = false
	row.ManualStatus = nil
	row.ManualMaturityLevel = nil

	// Save не пишет NULL в зависимые поля через struct — обновляем явно
	if err := database.DB.Model(&row).
		Select("manual_override", "manual_status", "manual_maturity_level").
		Updates(map[string]any{
			"manual_override":       false,
			"manual_status":         nil,
			"manual_maturity_level": nil,
		}).Error; err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actorFrom(c, user), "override_clear", "cis_result", entityID,
		cisResultAudit(before), cisResultAudit(row), adminOverride)

	c.JSON(http.StatusOK, row)
}

func cisResultAudit(r models.AssessmentCisResult) map[string]any {
	return map[string]any{
		"manualOverride":      r.ManualOverride,
		"manualStatus":        r.ManualStatus,
		"manualMaturityLevel": r.ManualMaturityLevel,
	}
}
