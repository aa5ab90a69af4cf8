package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"plain 10 digits", "9876543210", 9876543210},
		{"formatted local", "98765 43210", 9876543210},
		{"leading zero", "09876543210", 9876543210},
		{"country prefix", "919876543210", 9876543210},
		{"plus country prefix", "+919876543210", 9876543210},
		{"dashes and parens", "(91) 98765-43210", 9876543210},
		{"too short", "12345", 0},
		{"empty", "", 0},
		{"garbage", "call me", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPhone(tt.input))
		})
	}
}
