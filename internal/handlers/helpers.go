package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"ssdf-compass/internal/apperr"
	"ssdf-compass/internal/database"
	"ssdf-compass/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// currentUser — пользователь, положенный middleware.InjectUser.
func currentUser(c *gin.Context) (models.User, bool) {
	uVal, ok := c.Get("CurrentUser")
	if !ok {
		return models.User{}, false
	}
	switch u := uVal.(type) {
	case models.User:
		return u, true
	case *models.User:
		return *u, true
	}
	return models.User{}, false
}

func actorFrom(c *gin.Context, user models.User) database.Actor {
	return database.Actor{
		OrganizationID: user.OrganizationID,
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		RequestContext: c.Request.Method + " " + c.FullPath() + " from " + c.ClientIP(),
	}
}

// abortWithError — единая точка перевода ошибок ядра в HTTP-ответ.
func abortWithError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// loadAssessment — оценка по :id в рамках организации пользователя.
// Чужая или удалённая оценка неотличима от несуществующей.
func loadAssessment(c *gin.Context, user models.User) (models.Assessment, error) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return models.Assessment{}, apperr.Validation("invalid assessment id %q", idStr)
	}

	var a models.Assessment
	err = database.DB.
		Where("id = ? AND organization_id = ?", id, user.OrganizationID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Assessment{}, apperr.NotFound("assessment", idStr)
	}
	if err != nil {
		return models.Assessment{}, err
	}
	return a, nil
}

// latestRelease — последняя ревизия оценки; nil означает "релизов ещё нет"
// и трактуется машиной состояний как DRAFT.
func latestRelease(assessmentID uint) (*models.AssessmentRelease, error) {
	var rel models.AssessmentRelease
	err := database.DB.
		Where("assessment_id = ?", assessmentID).
		Order("id desc").
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func uintToStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
