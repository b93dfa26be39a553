package derivation

import (
	"math"
	"sort"

	"ssdf-compass/internal/models"
	"ssdf-compass/internal/scoring"
)

// Target — цель деривации CIS. Явный двухполевой ключ вместо nullable-колонки:
// пустой SafeguardID означает цель уровня контрола.
type Target struct {
	ControlID   string
	SafeguardID string
}

func ControlTarget(controlID string) Target {
	return Target{ControlID: controlID}
}

func SafeguardTarget(controlID, safeguardID string) Target {
	return Target{ControlID: controlID, SafeguardID: safeguardID}
}

func (t Target) IsControlLevel() bool { return t.SafeguardID == "" }

// MappingInput — проекция строки маппинга на вход чистого алгоритма.
type MappingInput struct {
	TaskID string
	Type   models.MappingType
	Weight float64
}

// TaskState — текущее состояние задачи SSDF в оценке.
type TaskState struct {
	Status        models.TaskStatus
	MaturityLevel int
}

type Result struct {
	Status        models.TaskStatus
	MaturityLevel int
	CoverageScore float64
	FromTaskIDs   []string
}

// Вклад типа маппинга в эффективный вес.
func TypeFactor(t models.MappingType) float64 {
	switch t {
	case models.MappingDirect:
		return 1
	case models.MappingPartial:
		return 0.7
	case models.MappingSupports:
		return 0.4
	}
	return 0
}

// StatusRule — одно правило свёртки статусов. Правила проверяются по порядку,
// срабатывает первое, у которого совпал хотя бы один статус задачи.
type StatusRule struct {
	Match  func(models.TaskStatus) bool
	Result models.TaskStatus
}

// StatusRules — приоритет свёртки статусов цели. Порядок существенен:
// NOT_STARTED перебивает всё, NOT_APPLICABLE оставлен для паритета с моделью
// частичного исключения на уровне маппинга.
var StatusRules = []StatusRule{
	{Match: func(s models.TaskStatus) bool { return s == models.TaskNotStarted }, Result: models.TaskNotStarted},
	{Match: func(s models.TaskStatus) bool { return s == models.TaskInProgress }, Result: models.TaskInProgress},
	{Match: func(s models.TaskStatus) bool { return s == models.TaskNotApplicable }, Result: models.TaskNotApplicable},
}

// FoldStatuses — свёртка по упорядоченным правилам; по умолчанию IMPLEMENTED.
func FoldStatuses(statuses []models.TaskStatus) models.TaskStatus {
	for _, rule := range StatusRules {
		for _, s := range statuses {
			if rule.Match(s) {
				return rule.Result
			}
		}
	}
	return models.TaskImplemented
}

// Derive — чистый расчёт производного результата CIS-цели по её маппингам
// и текущим состояниям задач. Тотальная функция: деление на ноль исключено
// ранним выходом на пустом наборе applicable-маппингов.
func Derive(mappings []MappingInput, results map[string]TaskState) Result {
	// Задачи-источники: есть маппинг и есть строка результата.
	seen := make(map[string]struct{})
	var from []string
	for _, m := range mappings {
		if _, ok := results[m.TaskID]; !ok {
			continue
		}
		if _, dup := seen[m.TaskID]; dup {
			continue
		}
		seen[m.TaskID] = struct{}{}
		from = append(from, m.TaskID)
	}
	sort.Strings(from)

	var applicable []MappingInput
	for _, m := range mappings {
		res, ok := results[m.TaskID]
		if !ok || res.Status == models.TaskNotApplicable {
			continue
		}
		applicable = append(applicable, m)
	}
	if len(applicable) == 0 {
		return Result{
			Status:      models.TaskNotApplicable,
			FromTaskIDs: from,
		}
	}

	statuses := make([]models.TaskStatus, 0, len(applicable))
	var weightSum, weightedMaturity float64
	for _, m := range applicable {
		res := results[m.TaskID]
		statuses = append(statuses, res.Status)

		eff := m.Weight * TypeFactor(m.Type)
		weightSum += eff
		weightedMaturity += float64(res.MaturityLevel) * eff
	}

	maturity := int(math.Round(weightedMaturity / weightSum))
	if maturity < 0 {
		maturity = 0
	}
	if maturity > scoring.MaxMaturityLevel {
		maturity = scoring.MaxMaturityLevel
	}

	coverage := weightedMaturity / (scoring.MaxMaturityLevel * weightSum) * 100

	return Result{
		Status:        FoldStatuses(statuses),
		MaturityLevel: maturity,
		CoverageScore: round2(coverage),
		FromTaskIDs:   from,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
