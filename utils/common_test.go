package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	t.Run("should keep matching elements in order", func(t *testing.T) {
		res := Filter([]int{1, 2, 3, 4}, func(i int) bool { return i%2 == 0 })
		assert.Equal(t, []int{2, 4}, res)
	})
	t.Run("should return an empty slice instead of nil", func(t *testing.T) {
		assert.Equal(t, []int{}, Filter[int](nil, func(int) bool { return true }))
	})
}

func TestOrDefault(t *testing.T) {
	t.Run("nil pointer should return the default", func(t *testing.T) {
		assert.Equal(t, 42, OrDefault[int](nil, 42))
	})
	t.Run("set pointer should return the value", func(t *testing.T) {
		assert.Equal(t, 7, OrDefault(Ptr(7), 42))
	})
}
