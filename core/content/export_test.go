package content

import "time"

// MockTimeNow overrides the clock; the returned func restores it.
func MockTimeNow(fn func() time.Time) (restore func()) {
	orig := timeNow
	timeNow = fn
	return func() { timeNow = orig }
}
