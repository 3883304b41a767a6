// Package attrs extracts typed values from slog-style key/value attribute
// lists ("key1", value1, "key2", value2, ...).
package attrs

// ExtractString returns the string value following the given key, or ""
// when the key is absent or its value is not a string.
func ExtractString(attributes []any, key string) string {
	for i := 0; i+1 < len(attributes); i += 2 {
		k, ok := attributes[i].(string)
		if !ok || k != key {
			continue
		}
		if v, ok := attributes[i+1].(string); ok {
			return v
		}
		return ""
	}
	return ""
}
