package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffFieldsSkipsEqual(t *testing.T) {
	before := map[string]any{"status": "not_started", "weight": 3, "owner": "alice"}
	after := map[string]any{"status": "in_progress", "weight": 3, "owner": "alice"}

	changes := DiffFields(before, after)

	require.Len(t, changes, 1)
	require.Equal(t, "status", changes[0].Field)
	require.Equal(t, `"not_started"`, changes[0].Old)
	require.Equal(t, `"in_progress"`, changes[0].New)
}

func TestDiffFieldsDeterministicOrder(t *testing.T) {
	before := map[string]any{"b": 1, "a": 1, "c": 1}
	after := map[string]any{"b": 2, "a": 2, "c": 2}

	changes := DiffFields(before, after)

	require.Len(t, changes, 3)
	require.Equal(t, "a", changes[0].Field)
	require.Equal(t, "b", changes[1].Field)
	require.Equal(t, "c", changes[2].Field)
}

func TestDiffFieldsCreateAndDelete(t *testing.T) {
	// nil "до" — создание: все поля в New
	changes := DiffFields(nil, map[string]any{"name": "x"})
	require.Len(t, changes, 1)
	require.Empty(t, changes[0].Old)
	require.Equal(t, `"x"`, changes[0].New)

	// nil "после" — удаление
	changes = DiffFields(map[string]any{"name": "x"}, nil)
	require.Len(t, changes, 1)
	require.Equal(t, `"x"`, changes[0].Old)
	require.Empty(t, changes[0].New)
}

func TestDiffFieldsRedactsSensitive(t *testing.T) {
	before := map[string]any{"passwordHash": "old-hash"}
	after := map[string]any{"passwordHash": "new-hash"}

	changes := DiffFields(before, after)

	require.Len(t, changes, 1)
	require.Equal(t, "[redacted]", changes[0].Old)
	require.Equal(t, "[redacted]", changes[0].New)
}

func TestDiffFieldsTruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", maxAuditValueLen*2)
	changes := DiffFields(map[string]any{"evidence": ""}, map[string]any{"evidence": long})

	require.Len(t, changes, 1)
	require.True(t, strings.HasSuffix(changes[0].New, "...(truncated)"))
	require.LessOrEqual(t, len(changes[0].New), maxAuditValueLen+len("...(truncated)"))
}

func TestDiffFieldsStructs(t *testing.T) {
	type row struct {
		Status   string `json:"status"`
		Maturity int    `json:"maturityLevel"`
	}

	changes := DiffFields(row{Status: "not_started"}, row{Status: "not_started", Maturity: 2})

	require.Len(t, changes, 1)
	require.Equal(t, "maturityLevel", changes[0].Field)
	require.Equal(t, "0", changes[0].Old)
	require.Equal(t, "2", changes[0].New)
}

func TestDiffFieldsNoChanges(t *testing.T) {
	obj := map[string]any{"a": 1, "b": "x"}
	require.Empty(t, DiffFields(obj, obj))
}
