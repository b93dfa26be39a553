package models

import "gorm.io/gorm"

// AssessmentCisResult — производный результат по цели CIS в рамках оценки.
// Цель — либо контрол целиком (CisSafeguardID == ""), либо конкретный safeguard.
// Пустая строка вместо NULL, чтобы составной уникальный ключ работал в Postgres.
type AssessmentCisResult struct {
	gorm.Model
	AssessmentID uint `gorm:"not null;uniqueIndex:idx_cis_result_key"`

	CisControlID   string `gorm:"size:8;not null;uniqueIndex:idx_cis_result_key"`
	CisSafeguardID string `gorm:"size:16;not null;default:'';uniqueIndex:idx_cis_result_key"`

	DerivedStatus        TaskStatus `gorm:"type:varchar(20);not null"`
	DerivedMaturityLevel int        `gorm:"not null"`
	DerivedCoverageScore float64    `gorm:"not null"` // 0..100
	DerivedFromTaskIDs   string     `gorm:"type:text"` // JSON-массив id задач-источников
	DerivedFromSsdf      bool       `gorm:"not null;default:true"`

	// Ручной override: показывается вместо производных значений,
	// но сами производные поля продолжают пересчитываться независимо.
	ManualOverride      bool        `gorm:"not null;default:false"`
	ManualStatus        *TaskStatus `gorm:"type:varchar(20)"`
	ManualMaturityLevel *int
}

// EffectiveStatus — значение, которое видит пользователь.
func (r *AssessmentCisResult) EffectiveStatus() TaskStatus {
	if r.ManualOverride && r.ManualStatus != nil {
		return *r.ManualStatus
	}
	return r.DerivedStatus
}

func (r *AssessmentCisResult) EffectiveMaturity() int {
	if r.ManualOverride && r.ManualMaturityLevel != nil {
		return *r.ManualMaturityLevel
	}
	return r.DerivedMaturityLevel
}
