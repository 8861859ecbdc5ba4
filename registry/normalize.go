package registry

// Normalize recursively strips null and empty values from a generic JSON tree
// so the registry receives a minimal payload. Keys whose normalized value is
// null, an empty string, an empty sequence or an empty mapping are dropped;
// sequence elements are dropped both before recursion (when already empty)
// and after (when they became empty through cleaning). Scalars pass through
// unchanged. Normalize is idempotent.
func Normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		cleaned := make(map[string]any, len(v))
		for key, val := range v {
			normalized := Normalize(val)
			if isEmpty(normalized) {
				continue
			}
			cleaned[key] = normalized
		}
		return cleaned
	case []any:
		cleaned := make([]any, 0, len(v))
		for _, element := range v {
			if isEmpty(element) {
				continue
			}
			normalized := Normalize(element)
			if isEmpty(normalized) {
				continue
			}
			cleaned = append(cleaned, normalized)
		}
		return cleaned
	default:
		return value
	}
}

// isEmpty reports whether a JSON value counts as empty for normalization.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
