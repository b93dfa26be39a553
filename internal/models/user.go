package models

import "gorm.io/gorm"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleAssessor UserRole = "assessor"
	RoleViewer   UserRole = "viewer"
)

type User struct {
	gorm.Model
	OrganizationID uint
	Organization   Organization

	Email        string   `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
}
