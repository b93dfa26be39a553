package derivation

import (
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ssdf-compass/internal/models"
)

// Пересчёт производных результатов CIS. Все функции идемпотентны:
// повторный вызов с теми же входами даёт тот же upsert без побочных эффектов.

// targetOf — разрешение цели маппинга: либо явный контрол, либо safeguard,
// чей родительский контрол достаётся из справочника.
func targetOf(db *gorm.DB, m models.SsdfCisMapping) (Target, error) {
	if m.CisSafeguardID == "" {
		return ControlTarget(m.CisControlID), nil
	}
	var sg models.CisSafeguard
	if err := db.First(&sg, "id = ?", m.CisSafeguardID).Error; err != nil {
		return Target{}, err
	}
	return SafeguardTarget(sg.CisControlID, sg.ID), nil
}

// TargetsForTask — все цели CIS, на которые ссылаются маппинги задачи.
func TargetsForTask(db *gorm.DB, taskID string) ([]Target, error) {
	var mappings []models.SsdfCisMapping
	if err := db.Where("ssdf_task_id = ?", taskID).Find(&mappings).Error; err != nil {
		return nil, err
	}

	seen := make(map[Target]struct{})
	var targets []Target
	for _, m := range mappings {
		t, err := targetOf(db, m)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}
	return targets, nil
}

// RecalcTask — веерный пересчёт после изменения результата задачи:
// каждая цель, замапленная на задачу, во всех оценках, где по задаче
// есть строка результата.
func RecalcTask(db *gorm.DB, taskID string) error {
	targets, err := TargetsForTask(db, taskID)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	var assessmentIDs []uint
	if err := db.Model(&models.AssessmentTaskResult{}).
		Where("ssdf_task_id = ?", taskID).
		Distinct().
		Pluck("assessment_id", &assessmentIDs).Error; err != nil {
		return err
	}

	for _, aid := range assessmentIDs {
		for _, t := range targets {
			if err := RecalcTarget(db, aid, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecalcMappingChange — пересчёт после создания/правки/удаления маппинга:
// затронуты цели и задачи как старой, так и новой ссылки.
func RecalcMappingChange(db *gorm.DB, before, after *models.SsdfCisMapping) error {
	seenT := make(map[Target]struct{})
	var targets []Target
	seenTask := make(map[string]struct{})
	var taskIDs []string

	for _, m := range []*models.SsdfCisMapping{before, after} {
		if m == nil {
			continue
		}
		t, err := targetOf(db, *m)
		if err != nil {
			return err
		}
		if _, dup := seenT[t]; !dup {
			seenT[t] = struct{}{}
			targets = append(targets, t)
		}
		if _, dup := seenTask[m.SsdfTaskID]; !dup {
			seenTask[m.SsdfTaskID] = struct{}{}
			taskIDs = append(taskIDs, m.SsdfTaskID)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	var assessmentIDs []uint
	if err := db.Model(&models.AssessmentTaskResult{}).
		Where("ssdf_task_id IN ?", taskIDs).
		Distinct().
		Pluck("assessment_id", &assessmentIDs).Error; err != nil {
		return err
	}

	for _, aid := range assessmentIDs {
		for _, t := range targets {
			if err := RecalcTarget(db, aid, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecalcAssessment — полный пересчёт всех целей, встречающихся в маппингах,
// для одной оценки. Используется при создании оценки.
func RecalcAssessment(db *gorm.DB, assessmentID uint) error {
	var mappings []models.SsdfCisMapping
	if err := db.Find(&mappings).Error; err != nil {
		return err
	}

	seen := make(map[Target]struct{})
	for _, m := range mappings {
		t, err := targetOf(db, m)
		if err != nil {
			return err
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if err := RecalcTarget(db, assessmentID, t); err != nil {
			return err
		}
	}
	return nil
}

// RecalcTarget — пересчёт одной цели в одной оценке: собрать маппинги цели,
// состояния задач, прогнать Derive и upsert-нуть только производные колонки.
// Ручной override при этом не трогается.
func RecalcTarget(db *gorm.DB, assessmentID uint, t Target) error {
	var mappings []models.SsdfCisMapping
	q := db.Model(&models.SsdfCisMapping{})
	if t.IsControlLevel() {
		q = q.Where("cis_control_id = ? AND cis_safeguard_id = ''", t.ControlID)
	} else {
		q = q.Where("cis_safeguard_id = ?", t.SafeguardID)
	}
	if err := q.Find(&mappings).Error; err != nil {
		return err
	}

	inputs := make([]MappingInput, 0, len(mappings))
	taskIDs := make([]string, 0, len(mappings))
	for _, m := range mappings {
		inputs = append(inputs, MappingInput{
			TaskID: m.SsdfTaskID,
			Type:   m.MappingType,
			Weight: m.Weight,
		})
		taskIDs = append(taskIDs, m.SsdfTaskID)
	}

	results := make(map[string]TaskState)
	if len(taskIDs) > 0 {
		var rows []models.AssessmentTaskResult
		if err := db.Where("assessment_id = ? AND ssdf_task_id IN ?", assessmentID, taskIDs).
			Find(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			results[r.SsdfTaskID] = TaskState{Status: r.Status, MaturityLevel: r.MaturityLevel}
		}
	}

	res := Derive(inputs, results)

	fromJSON, err := json.Marshal(res.FromTaskIDs)
	if err != nil {
		return err
	}

	row := models.AssessmentCisResult{
		AssessmentID:         assessmentID,
		CisControlID:         t.ControlID,
		CisSafeguardID:       t.SafeguardID,
		DerivedStatus:        res.Status,
		DerivedMaturityLevel: res.MaturityLevel,
		DerivedCoverageScore: res.CoverageScore,
		DerivedFromTaskIDs:   string(fromJSON),
		DerivedFromSsdf:      true,
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "assessment_id"},
			{Name: "cis_control_id"},
			{Name: "cis_safeguard_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"derived_status",
			"derived_maturity_level",
			"derived_coverage_score",
			"derived_from_task_ids",
			"derived_from_ssdf",
			"updated_at",
		}),
	}).Create(&row).Error
}
