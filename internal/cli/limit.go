package cli

// limiter counts the items a command processes against --limit
type limiter struct {
	enabled   bool
	remaining int
}

func newLimiter(enabled bool, n int) *limiter {
	return &limiter{enabled: enabled, remaining: n}
}

// reached is called at the top of a loop, before performing work. It
// reports whether the limit has been used up; a limit of N lets N
// iterations through. A negative limit lets none through.
func (l *limiter) reached() bool {
	if !l.enabled {
		return false
	}
	l.remaining--
	return l.remaining < 0
}
