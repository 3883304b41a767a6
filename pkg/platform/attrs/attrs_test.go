package attrs

import "testing"

func TestExtractString(t *testing.T) {
	tests := []struct {
		name       string
		attributes []any
		key        string
		expected   string
	}{
		{
			name:       "present key",
			attributes: []any{"student_id", "abc-123", "email", "a@univ.edu"},
			key:        "email",
			expected:   "a@univ.edu",
		},
		{
			name:       "absent key",
			attributes: []any{"student_id", "abc-123"},
			key:        "email",
			expected:   "",
		},
		{
			name:       "non-string value",
			attributes: []any{"count", 7},
			key:        "count",
			expected:   "",
		},
		{
			name:       "odd length list ignores trailing key",
			attributes: []any{"student_id", "abc-123", "dangling"},
			key:        "dangling",
			expected:   "",
		},
		{
			name:       "empty list",
			attributes: nil,
			key:        "anything",
			expected:   "",
		},
		{
			name:       "first of duplicate keys wins",
			attributes: []any{"email", "first@univ.edu", "email", "second@univ.edu"},
			key:        "email",
			expected:   "first@univ.edu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractString(tt.attributes, tt.key); got != tt.expected {
				t.Errorf("ExtractString(%v, %q) = %q, want %q", tt.attributes, tt.key, got, tt.expected)
			}
		})
	}
}
