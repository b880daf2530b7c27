package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	for _, tc := range []struct {
		name             string
		total, completed int
		want             int
	}{
		{"nothing to do", 0, 0, 0},
		{"negative total", -3, 1, 0},
		{"over-completion clamps", 10, 12, 100},
		{"quarter", 4, 1, 25},
		{"third rounds down", 3, 1, 33},
		{"two thirds rounds up", 3, 2, 67},
		{"half up at .5", 8, 1, 13},
		{"complete", 5, 5, 100},
		{"none done", 7, 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Percentage(tc.total, tc.completed))
		})
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0, Mean(nil))
	assert.Equal(t, 75, Mean([]int{50, 100}))
	assert.Equal(t, 50, Mean([]int{100, 0}))
	assert.Equal(t, 34, Mean([]int{33, 34, 34}))
	assert.Equal(t, 17, Mean([]int{33, 0}))
}
