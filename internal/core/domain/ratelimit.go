package domain

import "time"

// RateLimitSnapshot is the most recently observed remaining/limit/reset
// triple for a platform. Replaced wholesale on every response that
// carries rate-limit headers.
type RateLimitSnapshot struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
}

// Exhausted reports whether the request budget for the current window
// is spent.
func (s RateLimitSnapshot) Exhausted() bool {
	return s.Remaining <= 0
}
