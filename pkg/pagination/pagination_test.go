package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		size     string
		wantPage int
		wantSize int
	}{
		{"defaults", "", "", DefaultPage, DefaultPageSize},
		{"explicit", "3", "50", 3, 50},
		{"negative page", "-2", "10", DefaultPage, 10},
		{"oversized", "1", "10000", 1, MaxPageSize},
		{"garbage", "abc", "x", DefaultPage, DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
		})
	}
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(&PageParams{Page: 2, PageSize: 10}, 25)

	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	last := NewPageInfo(&PageParams{Page: 3, PageSize: 10}, 25)
	assert.False(t, last.HasNext)
}
