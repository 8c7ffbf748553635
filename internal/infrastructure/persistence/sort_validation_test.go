package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortSpec_Column(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"allowed column passes", "order_number", "order_number"},
		{"empty falls back", "", "created_at"},
		{"fallback is allowed", "created_at", "created_at"},
		{"unknown column falls back", "customer_email", "created_at"},
		{"injection falls back", "created_at; DROP TABLE orders", "created_at"},
		{"whitespace is trimmed", " total_price ", "total_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, orderSort.Column(tt.input))
		})
	}
}

func TestSortSpec_Clause(t *testing.T) {
	tests := []struct {
		dir  string
		desc bool
	}{
		{"asc", false},
		{"  ASC ", false},
		{"desc", true},
		{"", true},
		{"ASC; DROP TABLE orders;--", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.desc, webhookEventSort.Clause("attempts", tt.dir).Desc, tt.dir)
	}

	c := productSort.Clause("bogus", "asc")
	assert.Equal(t, "sku", c.Column.Name)
	assert.False(t, c.Desc)
	assert.False(t, productSort.Allows("order_number"))
}
