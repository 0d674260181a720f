// Package props merges the nested property mappings that flow from item type
// templates through item overrides down to per-instance customizations.
package props

// Merge combines a base mapping with an override mapping. The result holds
// the union of keys; when a key is present in both and both values are
// mappings, they are merged recursively, otherwise the override value wins.
// Neither input is mutated.
func Merge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = cloneValue(v)
	}
	for k, v := range override {
		baseVal, ok := merged[k]
		baseMap, baseIsMap := baseVal.(map[string]any)
		overrideMap, overrideIsMap := v.(map[string]any)
		if ok && baseIsMap && overrideIsMap {
			merged[k] = Merge(baseMap, overrideMap)
			continue
		}
		merged[k] = cloneValue(v)
	}
	return merged
}

// Clone deep-copies a property mapping. Nil maps clone to nil.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cloned := make(map[string]any, len(m))
	for k, v := range m {
		cloned[k] = cloneValue(v)
	}
	return cloned
}

func cloneValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return Clone(m)
	}
	return v
}
