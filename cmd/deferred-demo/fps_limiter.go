package main

import (
	"time"

	"deferred3d/internal/config"
)

// fpsLimiter paces the render loop to config.GetFPSLimit
type fpsLimiter struct {
	next time.Time
}

// Wait blocks until the next frame is due. It sleeps most of the interval
// and spins the last stretch for precision on high caps.
func (f *fpsLimiter) Wait() {
	limit := config.GetFPSLimit()
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
	}

	// resync after a hitch instead of racing to catch up
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
