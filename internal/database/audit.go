package database

import (
	"encoding/json"
	"sort"
	"strings"

	"ssdf-compass/internal/models"
)

// Журнал аудита: подокументные диффы. Ядро отдаёт сюда объекты "до" и "после"
// целиком, редактирование чувствительных полей и обрезка длинных значений —
// ответственность этого слоя.

const maxAuditValueLen = 512

// имена полей, значения которых никогда не попадают в журнал открытым текстом
var sensitiveFields = map[string]struct{}{
	"password":     {},
	"passwordhash": {},
	"secret":       {},
	"token":        {},
}

// Actor — контекст вызывающего. Ядро никогда не достаёт его само.
type Actor struct {
	OrganizationID uint
	UserID         uint
	Email          string
	Role           models.UserRole
	RequestContext string
}

type FieldChange struct {
	Field string
	Old   string
	New   string
}

// DiffFields — пополевой дифф двух объектов через их JSON-представление.
// Поля с одинаковой сериализацией пропускаются; nil с любой стороны означает
// создание либо удаление. Порядок полей детерминирован.
func DiffFields(before, after any) []FieldChange {
	b := toFieldMap(before)
	a := toFieldMap(after)

	names := make(map[string]struct{}, len(b)+len(a))
	for k := range b {
		names[k] = struct{}{}
	}
	for k := range a {
		names[k] = struct{}{}
	}

	ordered := make([]string, 0, len(names))
	for k := range names {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var changes []FieldChange
	for _, name := range ordered {
		oldVal, newVal := b[name], a[name]
		if oldVal == newVal {
			continue
		}
		changes = append(changes, FieldChange{
			Field: name,
			Old:   sanitizeValue(name, oldVal),
			New:   sanitizeValue(name, newVal),
		})
	}
	return changes
}

func toFieldMap(obj any) map[string]string {
	out := make(map[string]string)
	if obj == nil {
		return out
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return out
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	for name, v := range fields {
		out[name] = string(v)
	}
	return out
}

func sanitizeValue(field, val string) string {
	if _, sensitive := sensitiveFields[strings.ToLower(field)]; sensitive && val != "" {
		return "[redacted]"
	}
	if len(val) > maxAuditValueLen {
		return val[:maxAuditValueLen] + "...(truncated)"
	}
	return val
}

// LogFieldChanges — по одной строке журнала на каждое изменённое поле.
// override помечает запись админа в обход блокировки асессоров.
func LogFieldChanges(actor Actor, action, entity, entityID string, before, after any, override bool) {
	if DB == nil {
		return
	}

	for _, ch := range DiffFields(before, after) {
		record := models.AuditLog{
			OrganizationID: actor.OrganizationID,
			UserID:         actor.UserID,
			UserEmail:      actor.Email,
			UserRole:       string(actor.Role),
			Entity:         entity,
			EntityID:       entityID,
			Action:         action,
			Field:          ch.Field,
			OldValue:       ch.Old,
			NewValue:       ch.New,
			Success:        true,
			Override:       override,
			RequestContext: actor.RequestContext,
		}
		_ = DB.Create(&record).Error
	}
}

// LogDenied — отклонённая попытка мутации; не теряется, пишется с Success=false.
func LogDenied(actor Actor, action, entity, entityID, reason string) {
	if DB == nil {
		return
	}
	record := models.AuditLog{
		OrganizationID: actor.OrganizationID,
		UserID:         actor.UserID,
		UserEmail:      actor.Email,
		UserRole:       string(actor.Role),
		Entity:         entity,
		EntityID:       entityID,
		Action:         action,
		Details:        reason,
		Success:        false,
		RequestContext: actor.RequestContext,
	}
	_ = DB.Create(&record).Error
}

// LogAction — событие без пополевого диффа (создание пачки строк и т.п.).
func LogAction(actor Actor, action, entity, entityID, details string, override bool) {
	if DB == nil {
		return
	}
	record := models.AuditLog{
		OrganizationID: actor.OrganizationID,
		UserID:         actor.UserID,
		UserEmail:      actor.Email,
		UserRole:       string(actor.Role),
		Entity:         entity,
		EntityID:       entityID,
		Action:         action,
		Details:        details,
		Success:        true,
		Override:       override,
		RequestContext: actor.RequestContext,
	}
	_ = DB.Create(&record).Error
}
