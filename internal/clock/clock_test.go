package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_AdvanceFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(epoch)
	var order []string

	c.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "late") })

	c.Advance(50 * time.Millisecond)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, epoch.Add(50*time.Millisecond), c.Now())
	assert.Equal(t, 1, c.Pending())
}

func TestFake_CallbackSeesItsDeadline(t *testing.T) {
	c := NewFake(epoch)
	var seen time.Time
	c.AfterFunc(20*time.Millisecond, func() { seen = c.Now() })

	c.Advance(time.Second)
	assert.Equal(t, epoch.Add(20*time.Millisecond), seen)
}

func TestFake_SelfReschedulingWithinOneAdvance(t *testing.T) {
	c := NewFake(epoch)
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 5 {
			c.AfterFunc(10*time.Millisecond, tick)
		}
	}
	c.AfterFunc(10*time.Millisecond, tick)

	c.Advance(35 * time.Millisecond)
	assert.Equal(t, 3, ticks)

	c.Advance(time.Hour)
	assert.Equal(t, 5, ticks)
	assert.Zero(t, c.Pending())
}

func TestFake_Stop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Second)
	assert.False(t, fired)
}

func TestFake_RunNext(t *testing.T) {
	c := NewFake(epoch)
	assert.False(t, c.RunNext())

	var got []int
	c.AfterFunc(2*time.Second, func() { got = append(got, 2) })
	c.AfterFunc(time.Second, func() { got = append(got, 1) })

	require.True(t, c.RunNext())
	assert.Equal(t, epoch.Add(time.Second), c.Now())
	require.True(t, c.RunNext())
	assert.Equal(t, []int{1, 2}, got)
	assert.False(t, c.RunNext())
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer never fired")
	}
}
