package hal

import "time"

// FrameLimiter paces a loop to a fixed frame rate.
type FrameLimiter struct {
	frame time.Duration
	next  time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewFrameLimiter(fps int) *FrameLimiter {
	if fps <= 0 {
		fps = 60
	}

	return &FrameLimiter{
		frame: time.Second / time.Duration(fps),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Wait blocks until the next frame deadline. A loop that has fallen more than
// a frame behind is resynchronised instead of running catch-up frames.
func (l *FrameLimiter) Wait() {
	now := l.now()
	if l.next.IsZero() {
		l.next = now
	}

	l.next = l.next.Add(l.frame)
	if d := l.next.Sub(now); d > 0 {
		l.sleep(d)
		return
	}

	if now.Sub(l.next) > l.frame {
		l.next = now
	}
}

func (l *FrameLimiter) Reset() {
	l.next = time.Time{}
}
