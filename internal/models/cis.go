package models

// Справочник CIS Controls v8: контролы и safeguard'ы.

type IGLevel string

const (
	IG1 IGLevel = "IG1"
	IG2 IGLevel = "IG2"
	IG3 IGLevel = "IG3"
)

type CisControl struct {
	ID   string `gorm:"primaryKey;size:8"` // "1".."18"
	Name string `gorm:"size:255;not null"`
}

type CisSafeguard struct {
	ID           string `gorm:"primaryKey;size:16"` // Формат "<контрол>.<n>", например "16.1"
	CisControlID string `gorm:"size:8;not null;index"`
	CisControl   CisControl

	Name string  `gorm:"size:512;not null"`
	IG   IGLevel `gorm:"type:varchar(8);not null"`
}
