package handlers

import (
	"fmt"
	"net/http"
	"time"

	"ssdf-compass/internal/apperr"
	"ssdf-compass/internal/database"
	"ssdf-compass/internal/derivation"
	"ssdf-compass/internal/models"
	"ssdf-compass/internal/release"
	"ssdf-compass/internal/scoring"
	"ssdf-compass/internal/snapshot"

	"github.com/gin-gonic/gin"
)

func ListAssessments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var assessments []models.Assessment
	database.DB.
		Where("organization_id = ?", user.OrganizationID).
		Order("id asc").
		Find(&assessments)

	c.JSON(http.StatusOK, assessments)
}

type createAssessmentForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateAssessment — создаёт оценку и пакетно заводит по строке результата
// на каждую задачу SSDF из справочника, затем первично прогоняет деривацию.
func CreateAssessment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var form createAssessmentForm
	if err := c.ShouldBindJSON(&form); err != nil || len(form.Name) < 3 {
		abortWithError(c, apperr.Validation("assessment name must be at least 3 characters"))
		return
	}

	a := models.Assessment{
		OrganizationID: user.OrganizationID,
		Name:           form.Name,
		Description:    form.Description,
		EditingMode:    models.EditingUnlockedForAssessors,
	}
	if err := database.DB.Create(&a).Error; err != nil {
		abortWithError(c, err)
		return
	}

	var tasks []models.SsdfTask
	database.DB.Order("id asc").Find(&tasks)

	rows := make([]models.AssessmentTaskResult, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, models.AssessmentTaskResult{
			AssessmentID:  a.ID,
			SsdfTaskID:    t.ID,
			Applicable:    true,
			Status:        models.TaskNotStarted,
			MaturityLevel: 0,
			TargetLevel:   scoring.MaxMaturityLevel,
			Weight:        3,
		})
	}
	if len(rows) > 0 {
		if err := database.DB.Create(&rows).Error; err != nil {
			abortWithError(c, err)
			return
		}
	}

	if err := derivation.RecalcAssessment(database.DB, a.ID); err != nil {
		abortWithError(c, err)
		return
	}

	database.LogAction(actorFrom(c, user), "create", "assessment", uintToStr(a.ID),
		fmt.Sprintf("created with %d task result rows", len(rows)), false)

	c.JSON(http.StatusCreated, a)
}

func GetAssessment(c *gin.Context) {
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

	latest, err := latestRelease(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessment":    a,
		"releaseStatus": release.EffectiveStatus(latest),
		"latestRelease": latest,
		"canEdit":       release.CanEdit(user.Role, release.EffectiveStatus(latest), a.EditingMode),
	})
}

type editingModeForm struct {
	Mode models.EditingMode `json:"mode"`
	Note string             `json:"note"`
}

// SetEditingMode — admin-only (гарантируется роутером). Разблокировка
// асессоров допустима только в DRAFT-ревизию.
func SetEditingMode(c *gin.Context) {
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

	var form editingModeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, apperr.Validation("invalid payload"))
		return
	}

	latest, err := latestRelease(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := release.ValidateEditingMode(form.Mode, release.EffectiveStatus(latest)); err != nil {
		database.LogDenied(actorFrom(c, user), "set_editing_mode", "assessment", uintToStr(a.ID), err.Error())
		abortWithError(c, err)
		return
	}

	before := a
	now := time.Now()
	a.EditingMode = form.Mode
	a.LockedByID = &user.ID
	a.LockedAt = &now
	a.LockNote = form.Note

	if err := database.DB.Save(&a).Error; err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actorFrom(c, user), "set_editing_mode", "assessment", uintToStr(a.ID),
		editingModeAudit(before), editingModeAudit(a), false)

	c.JSON(http.StatusOK, a)
}

// editingModeAudit — проекция для аудита: только поля блокировки.
func editingModeAudit(a models.Assessment) map[string]any {
	return map[string]any{
		"editingMode": a.EditingMode,
		"lockNote":    a.LockNote,
	}
}

// buildLiveSnapshot — живой срез агрегатов оценки; он же замораживается
// в релиз при утверждении.
func buildLiveSnapshot(assessmentID uint) (snapshot.Snapshot, error) {
	var taskRows []models.AssessmentTaskResult
	if err := database.DB.
		Preload("SsdfTask.SsdfPractice.SsdfGroup").
		Where("assessment_id = ?", assessmentID).
		Order("ssdf_task_id asc").
		Find(&taskRows).Error; err != nil {
		return snapshot.Snapshot{}, err
	}

	var cisRows []models.AssessmentCisResult
	if err := database.DB.
		Where("assessment_id = ?", assessmentID).
		Find(&cisRows).Error; err != nil {
		return snapshot.Snapshot{}, err
	}

	var safeguards []models.CisSafeguard
	if err := database.DB.Find(&safeguards).Error; err != nil {
		return snapshot.Snapshot{}, err
	}

	return snapshot.Build(assessmentID, taskRows, cisRows, safeguards, time.Now()), nil
}

// Dashboard — текущий "draft"-срез для дашборда.
func Dashboard(c *gin.Context) {
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

	snap, err := buildLiveSnapshot(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Trend — замороженные снапшоты утверждённых релизов (нормализованные к
// текущей схеме) против живого среза.
func Trend(c *gin.Context) {
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

	var releases []models.AssessmentRelease
	database.DB.
		Where("assessment_id = ? AND status = ?", a.ID, models.ReleaseApproved).
		Order("id asc").
		Find(&releases)

	type frozenPoint struct {
		ReleaseID  uint              `json:"releaseId"`
		ApprovedAt *time.Time        `json:"approvedAt"`
		Snapshot   snapshot.Snapshot `json:"snapshot"`
	}

	points := make([]frozenPoint, 0, len(releases))
	for _, rel := range releases {
		if len(rel.Snapshot) == 0 {
			continue
		}
		snap, err := snapshot.Normalize(rel.Snapshot)
		if err != nil {
			// битый снапшот не валит весь тренд
			continue
		}
		points = append(points, frozenPoint{ReleaseID: rel.ID, ApprovedAt: rel.ApprovedAt, Snapshot: snap})
	}

	live, err := buildLiveSnapshot(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := gin.H{
		"frozen": points,
		"live":   live,
	}
	if len(points) > 0 {
		resp["deltas"] = snapshot.Compare(points[len(points)-1].Snapshot, live)
	}

	c.JSON(http.StatusOK, resp)
}
