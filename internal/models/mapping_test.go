package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssdf-compass/internal/apperr"
)

func TestMappingValidate(t *testing.T) {
	valid := SsdfCisMapping{
		SsdfTaskID:     "PW.7.2",
		CisSafeguardID: "16.12",
		MappingType:    MappingDirect,
		Weight:         1,
	}
	require.NoError(t, valid.Validate())

	// обе ссылки сразу
	m := valid
	m.CisControlID = "16"
	err := m.Validate()
	require.True(t, apperr.IsValidation(err))

	// ни одной ссылки
	m = valid
	m.CisSafeguardID = ""
	err = m.Validate()
	require.True(t, apperr.IsValidation(err))

	// неизвестный тип
	m = valid
	m.MappingType = MappingType("exact")
	err = m.Validate()
	require.True(t, apperr.IsValidation(err))

	// вес вне [0,1]
	m = valid
	m.Weight = 1.5
	require.True(t, apperr.IsValidation(m.Validate()))
	m.Weight = -0.1
	require.True(t, apperr.IsValidation(m.Validate()))
	m.Weight = 0
	require.NoError(t, m.Validate())
}

func TestEffectiveValues(t *testing.T) {
	status := TaskImplemented
	level := 3

	r := AssessmentCisResult{
		DerivedStatus:        TaskInProgress,
		DerivedMaturityLevel: 1,
	}
	require.Equal(t, TaskInProgress, r.EffectiveStatus())
	require.Equal(t, 1, r.EffectiveMaturity())

	r.ManualOverride = true
	r.ManualStatus = &status
	r.ManualMaturityLevel = &level
	require.Equal(t, TaskImplemented, r.EffectiveStatus())
	require.Equal(t, 3, r.EffectiveMaturity())

	// флаг поднят, но значения не заданы — показываем производные
	r.ManualStatus = nil
	r.ManualMaturityLevel = nil
	require.Equal(t, TaskInProgress, r.EffectiveStatus())
	require.Equal(t, 1, r.EffectiveMaturity())
}
