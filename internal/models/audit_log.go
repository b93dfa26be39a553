package models

import "time"

// AuditLog — по одной строке на каждое изменённое поле мутации,
// плюс строки с Success=false для отклонённых попыток.
type AuditLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	OrganizationID uint `gorm:"index"`

	UserID    uint
	User      User
	UserEmail string `gorm:"size:255"`
	UserRole  string `gorm:"size:20"`

	Entity   string `gorm:"size:50;not null;index"` // "assessment", "task_result", "cis_result", "mapping", "release"
	EntityID string `gorm:"size:64"`
	Action   string `gorm:"size:50;not null"` // "create", "update", "override_set", "submit" и т.п.

	Field    string `gorm:"size:64"`
	OldValue string `gorm:"type:text"`
	NewValue string `gorm:"type:text"`
	Details  string `gorm:"type:text"`

	Success  bool `gorm:"not null;default:true"`
	Override bool `gorm:"not null;default:false"` // запись админа в обход блокировки асессоров

	RequestContext string `gorm:"size:255"`
}
