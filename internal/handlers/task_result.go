package handlers

import (
	"errors"
	"net/http"
	"time"

	"ssdf-compass/internal/apperr"
	"ssdf-compass/internal/database"
	"ssdf-compass/internal/derivation"
	"ssdf-compass/internal/models"
	"ssdf-compass/internal/release"
	"ssdf-compass/internal/scoring"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListTaskResults(c *gin.Context) {
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

	var rows []models.AssessmentTaskResult
	database.DB.
		Preload("SsdfTask.SsdfPractice").
		Where("assessment_id = ?", a.ID).
		Order("ssdf_task_id asc").
		Find(&rows)

	type taskRow struct {
		models.AssessmentTaskResult
		Gap              int     `json:"gap"`
		Priority         int     `json:"priority"`
		ProgressWeighted float64 `json:"progressWeighted"`
	}

	out := make([]taskRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, taskRow{
			AssessmentTaskResult: r,
			Gap:                  scoring.Gap(r),
			Priority:             scoring.Priority(r),
			ProgressWeighted:     scoring.ProgressWeighted(r),
		})
	}

	c.JSON(http.StatusOK, out)
}

// Поля указателями: присланные отсутствующими не трогаем.
type taskResultForm struct {
	Applicable    *bool              `json:"applicable"`
	Status        *models.TaskStatus `json:"status"`
	MaturityLevel *int               `json:"maturityLevel"`
	TargetLevel   *int               `json:"targetLevel"`
	Weight        *int               `json:"weight"`
	Owner         *string            `json:"owner"`
	Team          *string            `json:"team"`
	DueDate       *time.Time         `json:"dueDate"`
	Evidence      *string            `json:"evidence"`
	Notes         *string            `json:"notes"`
}

func (f *taskResultForm) validate() error {
	if f.Status != nil && !models.ValidTaskStatus(*f.Status) {
		return apperr.Validation("unknown task status %q", *f.Status)
	}
	if f.MaturityLevel != nil && (*f.MaturityLevel < 0 || *f.MaturityLevel > scoring.MaxTaskLevelInput) {
		return apperr.Validation("maturity level %d is outside [0,%d]", *f.MaturityLevel, scoring.MaxTaskLevelInput)
	}
	if f.TargetLevel != nil && (*f.TargetLevel < 0 || *f.TargetLevel > scoring.MaxTaskLevelInput) {
		return apperr.Validation("target level %d is outside [0,%d]", *f.TargetLevel, scoring.MaxTaskLevelInput)
	}
	if f.Weight != nil && (*f.Weight < 1 || *f.Weight > 5) {
		return apperr.Validation("weight %d is outside [1,5]", *f.Weight)
	}
	return nil
}

// UpdateTaskResult — единственная точка мутации строки ответа по задаче.
// Порядок по контракту: гейт прав → нормализация и запись → веерный пересчёт
// CIS → аудит (после мутации, чтобы дифф отражал итоговое состояние).
func UpdateTaskResult(c *gin.Context) {
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

	taskID := c.Param("task_id")
	actor := actorFrom(c, user)

	latest, err := latestRelease(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	relStatus := release.EffectiveStatus(latest)

	// право выводится заново на каждую попытку записи
	if !release.CanEdit(user.Role, relStatus, a.EditingMode) {
		permErr := apperr.Permission("role %q cannot edit assessment in state %s/%s", user.Role, relStatus, a.EditingMode)
		database.LogDenied(actor, "update", "task_result", taskID, permErr.Error())
		abortWithError(c, permErr)
		return
	}
	override := release.IsOverrideEdit(user.Role, relStatus, a.EditingMode)

	var form taskResultForm
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, apperr.Validation("invalid payload"))
		return
	}
	if err := form.validate(); err != nil {
		abortWithError(c, err)
		return
	}

	var row models.AssessmentTaskResult
	err = database.DB.
		Where("assessment_id = ? AND ssdf_task_id = ?", a.ID, taskID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		abortWithError(c, apperr.NotFound("task result", taskID))
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	before := row

	if form.Applicable != nil {
		row.Applicable = *form.Applicable
	}
	if form.Status != nil {
		row.Status = *form.Status
	}
	if form.MaturityLevel != nil {
		row.MaturityLevel = *form.MaturityLevel
	}
	if form.TargetLevel != nil {
		row.TargetLevel = *form.TargetLevel
	}
	if form.Weight != nil {
		row.Weight = *form.Weight
	}
	if form.Owner != nil {
		row.Owner = *form.Owner
	}
	if form.Team != nil {
		row.Team = *form.Team
	}
	if form.DueDate != nil {
		row.DueDate = form.DueDate
	}
	if form.Evidence != nil {
		row.Evidence = *form.Evidence
	}
	if form.Notes != nil {
		row.Notes = *form.Notes
	}

	// согласование applicable/status — на сервере, до записи
	row.Status = scoring.NormalizeApplicability(row.Applicable, row.Status)

	if err := database.DB.Save(&row).Error; err != nil {
		abortWithError(c, err)
		return
	}

	// веерный пересчёт затронутых целей CIS во всех оценках с этой задачей
	if err := derivation.RecalcTask(database.DB, row.SsdfTaskID); err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actor, "update", "task_result", taskID,
		taskResultAudit(before), taskResultAudit(row), override)

	c.JSON(http.StatusOK, row)
}

// taskResultAudit — проекция строки для пополевого диффа в журнале.
func taskResultAudit(r models.AssessmentTaskResult) map[string]any {
	return map[string]any{
		"applicable":    r.Applicable,
		"status":        r.Status,
		"maturityLevel": r.MaturityLevel,
		"targetLevel":   r.TargetLevel,
		"weight":        r.Weight,
		"owner":         r.Owner,
		"team":          r.Team,
		"dueDate":       r.DueDate,
		"evidence":      r.Evidence,
		"notes":         r.Notes,
	}
}
