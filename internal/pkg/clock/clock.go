package clock

import "time"

// Clock abstracts wall-clock reads so due-time logic can be tested without
// real waiting.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the system clock.
func Real() Clock { return realClock{} }
