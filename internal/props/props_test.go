package props

import (
	"reflect"
	"testing"
)

func TestMergeUnionOfKeys(t *testing.T) {
	base := map[string]any{"a": 1, "b": 2}
	override := map[string]any{"b": 3, "c": 4}

	got := Merge(base, override)

	want := map[string]any{"a": 1, "b": 3, "c": 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMergeRecursesIntoNestedMappings(t *testing.T) {
	base := map[string]any{
		"defense": map[string]any{"name": "Defense", "value": 10},
	}
	override := map[string]any{
		"defense": map[string]any{"value": 12},
	}

	got := Merge(base, override)

	defense, ok := got["defense"].(map[string]any)
	if !ok {
		t.Fatalf("defense is %T, want map", got["defense"])
	}
	if defense["name"] != "Defense" {
		t.Errorf("name = %v, want Defense", defense["name"])
	}
	if defense["value"] != 12 {
		t.Errorf("value = %v, want 12", defense["value"])
	}
}

func TestMergeOverrideWinsOnScalarConflict(t *testing.T) {
	base := map[string]any{"durability": map[string]any{"value": 100}}
	override := map[string]any{"durability": "broken"}

	got := Merge(base, override)

	if got["durability"] != "broken" {
		t.Errorf("durability = %v, want broken", got["durability"])
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	x := map[string]any{
		"a": 1,
		"nested": map[string]any{"b": "two", "deeper": map[string]any{"c": 3.0}},
	}

	if got := Merge(x, x); !reflect.DeepEqual(got, x) {
		t.Errorf("Merge(x, x) = %v, want %v", got, x)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"shared": map[string]any{"a": 1}}
	override := map[string]any{"shared": map[string]any{"b": 2}}

	got := Merge(base, override)

	// Mutating the result must not leak into either input.
	got["shared"].(map[string]any)["a"] = 99

	if base["shared"].(map[string]any)["a"] != 1 {
		t.Error("base was mutated through the merge result")
	}
	if _, ok := override["shared"].(map[string]any)["a"]; ok {
		t.Error("override was mutated through the merge result")
	}
}

func TestMergeEmptySides(t *testing.T) {
	m := map[string]any{"a": 1}

	if got := Merge(nil, m); !reflect.DeepEqual(got, m) {
		t.Errorf("Merge(nil, m) = %v, want %v", got, m)
	}
	if got := Merge(m, nil); !reflect.DeepEqual(got, m) {
		t.Errorf("Merge(m, nil) = %v, want %v", got, m)
	}
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %v, want empty", got)
	}
}

func TestCloneNil(t *testing.T) {
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
