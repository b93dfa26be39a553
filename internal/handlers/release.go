package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"ssdf-compass/internal/apperr"
	"ssdf-compass/internal/database"
	"ssdf-compass/internal/models"
	"ssdf-compass/internal/release"

	"github.com/gin-gonic/gin"
)

// Цикл согласования: submit / approve / reject / unlock.
// Утверждённый релиз не мутируется — unlock создаёт новый DRAFT.

func releaseAudit(r *models.AssessmentRelease) map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"status":        r.Status,
		"baseReleaseId": r.BaseReleaseID,
		"approvedAt":    r.ApprovedAt,
		"approvedById":  r.ApprovedByID,
	}
}

func SubmitRelease(c *gin.Context) {
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
	actor := actorFrom(c, user)

	latest, err := latestRelease(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := release.Submit(user.Role, release.EffectiveStatus(latest)); err != nil {
		database.LogDenied(actor, "submit", "release", uintToStr(a.ID), err.Error())
		abortWithError(c, err)
		return
	}

	now := time.Now()
	before := releaseAudit(latest)

	if latest == nil {
		// релиз создаётся лениво при первом submit
		rel := models.AssessmentRelease{
			AssessmentID:  a.ID,
			Status:        models.ReleaseInReview,
			SubmittedByID: &user.ID,
			SubmittedAt:   &now,
		}
		if err := database.DB.Create(&rel).Error; err != nil {
			abortWithError(c, err)
			return
		}
		latest = &rel
	} else {
		latest.Status = models.ReleaseInReview
		latest.SubmittedByID = &user.ID
		latest.SubmittedAt = &now
		if err := database.DB.Save(latest).Error; err != nil {
			abortWithError(c, err)
			return
		}
	}

	database.LogFieldChanges(actor, "submit", "release", uintToStr(latest.ID),
		before, releaseAudit(latest), false)

	c.JSON(http.StatusOK, latest)
}

// ApproveRelease — admin-only; снапшот считается и замораживается на релиз.
func ApproveRelease(c *gin.Context) {
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
	actor := actorFrom(c, user)

	latest, err := latestRelease(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := release.Approve(user.Role, release.EffectiveStatus(latest)); err != nil {
		database.LogDenied(actor, "approve", "release", uintToStr(a.ID), err.Error())
		abortWithError(c, err)
		return
	}

	snap, err := buildLiveSnapshot(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	frozen, err := json.Marshal(snap)
	if err != nil {
		abortWithError(c, err)
		return
	}

	before := releaseAudit(latest)
	now := time.Now()
	latest.Status = models.ReleaseApproved
	latest.Snapshot = frozen
	latest.ApprovedByID = &user.ID
	latest.ApprovedAt = &now

	if err := database.DB.Save(latest).Error; err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actor, "approve", "release", uintToStr(latest.ID),
		before, releaseAudit(latest), false)

	c.JSON(http.StatusOK, latest)
}

func RejectRelease(c *gin.Context) {
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
	actor := actorFrom(c, user)

	latest, err := latestRelease(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := release.Reject(user.Role, release.EffectiveStatus(latest)); err != nil {
		database.LogDenied(actor, "reject", "release", uintToStr(a.ID), err.Error())
		abortWithError(c, err)
		return
	}

	before := releaseAudit(latest)
	latest.Status = models.ReleaseDraft
	latest.ApprovedByID = nil
	latest.ApprovedAt = nil

	if err := database.DB.Model(latest).
		Select("status", "approved_by_id", "approved_at").
		Updates(map[string]any{
			"status":         models.ReleaseDraft,
			"approved_by_id": nil,
			"approved_at":    nil,
		}).Error; err != nil {
		abortWithError(c, err)
		return
	}

	database.LogFieldChanges(actor, "reject", "release", uintToStr(latest.ID),
		before, releaseAudit(latest), false)

	c.JSON(http.StatusOK, latest)
}

// UnlockRelease — возврат к редактированию. Побочный эффект: editingMode
// безусловно ставится в UNLOCKED_FOR_ASSESSORS.
func UnlockRelease(c *gin.Context) {
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
	actor := actorFrom(c, user)

	latest, err := latestRelease(a.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	outcome, err := release.Unlock(user.Role, latest)
	if err != nil {
		database.LogDenied(actor, "unlock", "release", uintToStr(a.ID), err.Error())
		abortWithError(c, err)
		return
	}

	var current *models.AssessmentRelease
	switch outcome {
	case release.UnlockCreateFirst:
		rel := models.AssessmentRelease{
			AssessmentID: a.ID,
			Status:       models.ReleaseDraft,
		}
		if err := database.DB.Create(&rel).Error; err != nil {
			abortWithError(c, err)
			return
		}
		current = &rel
		database.LogFieldChanges(actor, "unlock", "release", uintToStr(rel.ID),
			nil, releaseAudit(&rel), false)

	case release.UnlockNewRevision:
		// утверждённый релиз остаётся нетронутым
		rel := models.AssessmentRelease{
			AssessmentID:  a.ID,
			Status:        models.ReleaseDraft,
			BaseReleaseID: &latest.ID,
		}
		if err := database.DB.Create(&rel).Error; err != nil {
			abortWithError(c, err)
			return
		}
		current = &rel
		database.LogFieldChanges(actor, "unlock", "release", uintToStr(rel.ID),
			nil, releaseAudit(&rel), false)

	case release.UnlockReopenInReview:
		before := releaseAudit(latest)
		latest.Status = models.ReleaseDraft
		if err := database.DB.Save(latest).Error; err != nil {
			abortWithError(c, err)
			return
		}
		current = latest
		database.LogFieldChanges(actor, "unlock", "release", uintToStr(latest.ID),
			before, releaseAudit(latest), false)

	default:
		abortWithError(c, apperr.Validation("unexpected unlock outcome"))
		return
	}

	// безусловный побочный эффект unlock
	now := time.Now()
	beforeMode := editingModeAudit(a)
	a.EditingMode = models.EditingUnlockedForAssessors
	a.LockedByID = &user.ID
	a.LockedAt = &now
	if err := database.DB.Save(&a).Error; err != nil {
		abortWithError(c, err)
		return
	}
	database.LogFieldChanges(actor, "unlock", "assessment", uintToStr(a.ID),
		beforeMode, editingModeAudit(a), false)

	c.JSON(http.StatusOK, current)
}

func ListReleases(c *gin.Context) {
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
		Where("assessment_id = ?", a.ID).
		Order("id asc").
		Find(&releases)

	c.JSON(http.StatusOK, releases)
}
