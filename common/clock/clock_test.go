package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem(t *testing.T) {
	t.Parallel()
	before := time.Now()
	now := System.Now()
	assert.False(t, now.Before(before), "System clock should not go backwards")
}

func TestFixed(t *testing.T) {
	t.Parallel()
	tt := time.UnixMilli(1499827319559)
	c := Fixed(tt)
	assert.Equal(t, tt, c.Now())
	assert.Equal(t, c.Now(), c.Now(), "Fixed clock should be stable")
}

func TestFunc(t *testing.T) {
	t.Parallel()
	var calls int
	c := Func(func() time.Time {
		calls++
		return time.UnixMilli(int64(calls))
	})
	assert.Equal(t, time.UnixMilli(1), c.Now())
	assert.Equal(t, time.UnixMilli(2), c.Now())
}
