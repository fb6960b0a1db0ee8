package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want int
	}{
		{"none", "SELECT * FROM t", 0},
		{"single", "SELECT * FROM t WHERE id = $1", 1},
		{"multiple", "SELECT * FROM t WHERE a = $1 AND b = $2", 2},
		{"double digit", "SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countPlaceholders(tt.sql))
		})
	}
}

func TestArgPlaceholders(t *testing.T) {
	assert.Equal(t, "", argPlaceholders(0))
	assert.Equal(t, "(NULL)", argPlaceholders(1))
	assert.Equal(t, "(NULL, NULL)", argPlaceholders(2))
}
