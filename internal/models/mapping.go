package models

import (
	"gorm.io/gorm"

	"ssdf-compass/internal/apperr"
)

type MappingType string

const (
	MappingDirect   MappingType = "direct"
	MappingPartial  MappingType = "partial"
	MappingSupports MappingType = "supports"
)

// SsdfCisMapping — связь "задача SSDF → контрол ИЛИ safeguard CIS".
// Ровно одно из двух полей цели должно быть заполнено.
type SsdfCisMapping struct {
	gorm.Model

	SsdfTaskID string `gorm:"size:16;not null;index"`
	SsdfTask   SsdfTask

	CisControlID   string `gorm:"size:8;index"`
	CisSafeguardID string `gorm:"size:16;index"`

	MappingType MappingType `gorm:"type:varchar(16);not null"`
	Weight      float64     `gorm:"not null"` // [0,1]
}

func (m *SsdfCisMapping) Validate() error {
	hasControl := m.CisControlID != ""
	hasSafeguard := m.CisSafeguardID != ""
	if hasControl == hasSafeguard {
		return apperr.Validation("mapping must reference exactly one of cis_control_id / cis_safeguard_id")
	}
	switch m.MappingType {
	case MappingDirect, MappingPartial, MappingSupports:
	default:
		return apperr.Validation("unknown mapping type %q", m.MappingType)
	}
	if m.Weight < 0 || m.Weight > 1 {
		return apperr.Validation("mapping weight %v is outside [0,1]", m.Weight)
	}
	return nil
}
