package models

// Справочник NIST SSDF: группы → практики → задачи.
// Сидится один раз, почти не меняется.

type SsdfGroup struct {
	ID   string `gorm:"primaryKey;size:4"`  // PO / PS / PW / RV
	Name string `gorm:"size:255;not null"`
}

// GroupOrder — фиксированный порядок групп для отчётов и снапшотов.
var GroupOrder = []string{"PO", "PS", "PW", "RV"}

type SsdfPractice struct {
	ID          string `gorm:"primaryKey;size:16"` // Например: PO.1
	SsdfGroupID string `gorm:"size:4;not null;index"`
	SsdfGroup   SsdfGroup

	Name string `gorm:"size:512;not null"`
}

type SsdfTask struct {
	ID             string `gorm:"primaryKey;size:16"` // Например: PO.1.1
	SsdfPracticeID string `gorm:"size:16;not null;index"`
	SsdfPractice   SsdfPractice

	Name      string `gorm:"size:512;not null"`
	Example   string `gorm:"type:text"` // Пример реализации из каталога NIST
	Reference string `gorm:"type:text"` // Ссылки на смежные стандарты
}
