package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOrigin(t *testing.T) {
	tests := []struct {
		origin  string
		allowed string
		want    bool
	}{
		{"http://localhost:5173", "http://localhost:5173", true},
		{"https://admin.example.com", "*.example.com", true},
		{"https://example.com:8443", "*.example.com", true},
		{"https://evil-example.com", "*.example.com", false},
		{"https://example.com.evil.io", "*.example.com", false},
		{"http://localhost:3000", "http://localhost:5173", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchOrigin(tt.origin, tt.allowed), tt.origin)
	}
}
