package models

import (
	"time"

	"gorm.io/gorm"
)

type EditingMode string

const (
	EditingUnlockedForAssessors EditingMode = "unlocked_for_assessors"
	EditingLockedAdminOnly      EditingMode = "locked_admin_only"
)

type TaskStatus string

const (
	TaskNotStarted    TaskStatus = "not_started"
	TaskInProgress    TaskStatus = "in_progress"
	TaskImplemented   TaskStatus = "implemented"
	TaskNotApplicable TaskStatus = "not_applicable"
)

func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskImplemented, TaskNotApplicable:
		return true
	}
	return false
}

type Assessment struct {
	gorm.Model
	OrganizationID uint `gorm:"not null;index"`
	Organization   Organization

	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`

	// Режим редактирования — независим от статуса релиза, меняется только админом.
	EditingMode EditingMode `gorm:"type:varchar(32);not null;default:'unlocked_for_assessors'"`
	LockedByID  *uint
	LockedAt    *time.Time
	LockNote    string `gorm:"type:text"`
}

// AssessmentTaskResult — строка ответа по задаче SSDF в рамках одной оценки.
// Создаётся пакетно при создании оценки: ровно одна строка на (оценка, задача).
type AssessmentTaskResult struct {
	gorm.Model
	AssessmentID uint `gorm:"not null;uniqueIndex:idx_task_result_key"`
	Assessment   Assessment

	SsdfTaskID string `gorm:"size:16;not null;uniqueIndex:idx_task_result_key"`
	SsdfTask   SsdfTask

	Applicable    bool       `gorm:"not null;default:true"`
	Status        TaskStatus `gorm:"type:varchar(20);not null"`
	MaturityLevel int        `gorm:"not null"` // редактор допускает 0..5, деривация считает от MAX=3
	TargetLevel   int        `gorm:"not null"`
	Weight        int        `gorm:"not null"` // [1,5]

	Owner    string `gorm:"size:255"`
	Team     string `gorm:"size:255"`
	DueDate  *time.Time
	Evidence string `gorm:"type:text"`
	Notes    string `gorm:"type:text"`
}

type ReleaseStatus string

const (
	ReleaseDraft    ReleaseStatus = "draft"
	ReleaseInReview ReleaseStatus = "in_review"
	ReleaseApproved ReleaseStatus = "approved"
)

// AssessmentRelease — ревизия оценки в цикле согласования.
// Утверждённые релизы никогда не мутируются: возврат к редактированию
// идёт через новый DRAFT со ссылкой BaseReleaseID.
type AssessmentRelease struct {
	gorm.Model
	AssessmentID uint `gorm:"not null;index"`
	Assessment   Assessment

	Status        ReleaseStatus `gorm:"type:varchar(16);not null"`
	BaseReleaseID *uint

	// Снапшот агрегатов, замороженный при утверждении (JSON).
	Snapshot []byte `gorm:"type:jsonb"`

	SubmittedByID *uint
	SubmittedAt   *time.Time
	ApprovedByID  *uint
	ApprovedAt    *time.Time
}
