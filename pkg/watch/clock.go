package watch

import "time"

// Clock provides time for the watcher. The default implementation uses
// system time. Tests can inject a fake clock via Options.Clock to control
// warm-up gating deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock uses system time.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
