package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendContext_Skip(t *testing.T) {
	cases := []struct {
		name        string
		page, limit int
		want        int
	}{
		{"first page", 1, 10, 0},
		{"zero page", 0, 10, 0},
		{"second page", 2, 10, 10},
		{"zero limit", 5, 0, 0},
		{"overflow saturates", math.MaxInt/10 + 2, 10, math.MaxInt},
		{"max page", math.MaxInt, math.MaxInt, math.MaxInt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rctx := &RecommendContext{Page: tc.page, Limit: tc.limit}
			assert.Equal(t, tc.want, rctx.Skip())
		})
	}
}
