package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		limits     Limits
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", wantPage: 1, wantLimit: 10, wantOffset: 0},
		{name: "explicit", page: 3, limit: 20, wantPage: 3, wantLimit: 20, wantOffset: 40},
		{name: "capped", page: 1, limit: 500, wantPage: 1, wantLimit: 100, wantOffset: 0},
		{name: "configured", page: 2, limits: Limits{Default: 5, Max: 50}, wantPage: 2, wantLimit: 5, wantOffset: 5},
		{name: "negative", page: -1, limit: -5, wantPage: 1, wantLimit: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(tt.page, tt.limit, tt.limits)

			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestTotalPages(t *testing.T) {
	p := Page{Page: 1, Limit: 10}

	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 2, p.TotalPages(11))
	assert.Equal(t, 0, Page{}.TotalPages(5))
}
