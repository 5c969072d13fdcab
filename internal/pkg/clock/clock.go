package clock

import "time"

// Clock supplies the current time. Eligibility and fee code takes a Clock
// instead of calling time.Now so results are reproducible in tests.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns T.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
