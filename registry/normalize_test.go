package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizeDropsEmptyFields(t *testing.T) {
	payload := map[string]any{
		"name":        "record",
		"empty":       "",
		"nothing":     nil,
		"empty_list":  []any{},
		"empty_map":   map[string]any{},
		"count":       float64(0),
		"enabled":     false,
		"subject_ids": []any{float64(12)},
	}

	got := Normalize(payload)

	assert.Equal(t, map[string]any{
		"name":        "record",
		"count":       float64(0),
		"enabled":     false,
		"subject_ids": []any{float64(12)},
	}, got)
}

func TestNormalizeRemovesEmptiedAncestors(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{
			"contacts": []any{
				map[string]any{"contact_name": "", "contact_email": nil},
			},
		},
		"record_type_id": float64(1),
	}

	got := Normalize(payload)

	// The contact object empties out, which empties the list, which empties
	// the metadata object; all three are dropped.
	assert.Equal(t, map[string]any{"record_type_id": float64(1)}, got)
}

func TestNormalizeSequenceRules(t *testing.T) {
	payload := []any{
		"",
		nil,
		[]any{},
		map[string]any{"a": nil},
		"kept",
		[]any{"", "inner"},
	}

	got := Normalize(payload)

	assert.Equal(t, []any{"kept", []any{"inner"}}, got)
}

func TestNormalizeScalarsPassThrough(t *testing.T) {
	assert.Equal(t, float64(0), Normalize(float64(0)))
	assert.Equal(t, false, Normalize(false))
	assert.Equal(t, "x", Normalize("x"))
}

// TestNormalizeIdempotent checks that a second application of Normalize is a
// no-op over randomly generated JSON trees.
func TestNormalizeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := genJSONValue(rt, 3)
		once := Normalize(tree)
		twice := Normalize(once)
		assert.Equal(t, once, twice)
	})
}

// genJSONValue draws a JSON-like value with bounded depth.
func genJSONValue(rt *rapid.T, depth int) any {
	maxKind := 4
	if depth > 0 {
		maxKind = 6
	}
	switch rapid.IntRange(0, maxKind).Draw(rt, "kind") {
	case 0:
		return nil
	case 1:
		return rapid.String().Draw(rt, "string")
	case 2:
		return float64(rapid.IntRange(-1000, 1000).Draw(rt, "number"))
	case 3:
		return rapid.Bool().Draw(rt, "bool")
	case 4:
		return ""
	case 5:
		n := rapid.IntRange(0, 4).Draw(rt, "len")
		seq := make([]any, 0, n)
		for i := 0; i < n; i++ {
			seq = append(seq, genJSONValue(rt, depth-1))
		}
		return seq
	default:
		n := rapid.IntRange(0, 4).Draw(rt, "size")
		obj := make(map[string]any, n)
		for i := 0; i < n; i++ {
			key := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "key")
			obj[key] = genJSONValue(rt, depth-1)
		}
		return obj
	}
}
