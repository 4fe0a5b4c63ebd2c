package hal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func newTestLimiter(fps int) (*FrameLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	l := NewFrameLimiter(fps)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestFrameLimiter_Wait(t *testing.T) {
	t.Run("sleeps the remainder of the frame", func(t *testing.T) {
		l, clock := newTestLimiter(50)

		l.Wait()
		clock.now = clock.now.Add(5 * time.Millisecond)
		l.Wait()

		assert.Equal(t, []time.Duration{20 * time.Millisecond, 15 * time.Millisecond}, clock.slept)
	})

	t.Run("resyncs when far behind", func(t *testing.T) {
		l, clock := newTestLimiter(50)

		l.Wait()
		clock.now = clock.now.Add(time.Second)
		l.Wait()
		l.Wait()

		assert.Equal(t, []time.Duration{20 * time.Millisecond, 20 * time.Millisecond}, clock.slept)
	})

	t.Run("non-positive fps defaults to 60", func(t *testing.T) {
		l := NewFrameLimiter(0)
		assert.Equal(t, time.Second/60, l.frame)
	})
}
