package models

import "gorm.io/gorm"

type Organization struct {
	gorm.Model
	Name  string `gorm:"size:255;not null"` // Название организации
	Slug  string `gorm:"size:64;uniqueIndex"`
	Notes string `gorm:"type:text"` // Комментарии об организации
}
