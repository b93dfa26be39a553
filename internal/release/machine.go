package release

import (
	"ssdf-compass/internal/apperr"
	"ssdf-compass/internal/models"
)

// Машина состояний релиза: DRAFT → IN_REVIEW → APPROVED,
// плюс reject (IN_REVIEW → DRAFT) и unlock (APPROVED → новый DRAFT).
// Любой другой переход — Conflict с ожидаемым и фактическим состоянием.

// EffectiveStatus — отсутствие записи релиза считается DRAFT.
func EffectiveStatus(latest *models.AssessmentRelease) models.ReleaseStatus {
	if latest == nil {
		return models.ReleaseDraft
	}
	return latest.Status
}

// CanEdit — право на мутацию строк оценки. Выводится заново при каждой
// попытке записи, никогда не кэшируется.
func CanEdit(role models.UserRole, status models.ReleaseStatus, mode models.EditingMode) bool {
	if role == models.RoleAdmin {
		return true
	}
	if role != models.RoleAssessor {
		return false
	}
	if mode != models.EditingUnlockedForAssessors {
		return false
	}
	return status == models.ReleaseDraft
}

// IsOverrideEdit — запись админа в обход блокировки, видимой асессорам.
// Такая мутация помечается в аудите флагом override.
func IsOverrideEdit(role models.UserRole, status models.ReleaseStatus, mode models.EditingMode) bool {
	if role != models.RoleAdmin {
		return false
	}
	return status != models.ReleaseDraft || mode != models.EditingUnlockedForAssessors
}

func Submit(role models.UserRole, current models.ReleaseStatus) error {
	if role != models.RoleAdmin && role != models.RoleAssessor {
		return apperr.Permission("role %q cannot submit a release", role)
	}
	if current != models.ReleaseDraft {
		return apperr.Conflict("submit", string(models.ReleaseDraft), string(current))
	}
	return nil
}

func Approve(role models.UserRole, current models.ReleaseStatus) error {
	if role != models.RoleAdmin {
		return apperr.Permission("role %q cannot approve a release", role)
	}
	if current != models.ReleaseInReview {
		return apperr.Conflict("approve", string(models.ReleaseInReview), string(current))
	}
	return nil
}

func Reject(role models.UserRole, current models.ReleaseStatus) error {
	if role != models.RoleAdmin {
		return apperr.Permission("role %q cannot reject a release", role)
	}
	if current != models.ReleaseInReview {
		return apperr.Conflict("reject", string(models.ReleaseInReview), string(current))
	}
	return nil
}

// UnlockOutcome — что именно должен сделать вызывающий слой при unlock.
type UnlockOutcome int

const (
	// Релизов ещё нет — создать первый DRAFT.
	UnlockCreateFirst UnlockOutcome = iota
	// Последний релиз утверждён — создать новый DRAFT со ссылкой на него.
	UnlockNewRevision
	// Последний релиз на согласовании — вернуть его в DRAFT на месте.
	UnlockReopenInReview
)

// Unlock — admin-only. Побочный эффект (установка editingMode в
// UNLOCKED_FOR_ASSESSORS) выполняется вызывающим слоем безусловно.
func Unlock(role models.UserRole, latest *models.AssessmentRelease) (UnlockOutcome, error) {
	if role != models.RoleAdmin {
		return 0, apperr.Permission("role %q cannot unlock an assessment", role)
	}
	if latest == nil {
		return UnlockCreateFirst, nil
	}
	switch latest.Status {
	case models.ReleaseApproved:
		return UnlockNewRevision, nil
	case models.ReleaseInReview:
		return UnlockReopenInReview, nil
	}
	return 0, apperr.Conflict("unlock",
		string(models.ReleaseApproved)+" or "+string(models.ReleaseInReview),
		string(latest.Status))
}

// ValidateEditingMode — разблокировать асессоров можно только в DRAFT-ревизию.
func ValidateEditingMode(mode models.EditingMode, current models.ReleaseStatus) error {
	switch mode {
	case models.EditingUnlockedForAssessors, models.EditingLockedAdminOnly:
	default:
		return apperr.Validation("unknown editing mode %q", mode)
	}
	if mode == models.EditingUnlockedForAssessors && current != models.ReleaseDraft {
		return apperr.Conflict("unlock_for_assessors", string(models.ReleaseDraft), string(current))
	}
	return nil
}
