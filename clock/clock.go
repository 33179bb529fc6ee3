package clock

import "time"

// Clock is the time source handed to anything that depends on "now".
type Clock interface {
	Now() time.Time
}

type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant. It replaces pinning the process-wide
// date for demos and tests.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time {
	return f.At.UTC()
}
