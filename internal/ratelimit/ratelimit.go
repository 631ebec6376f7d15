package ratelimit

import (
	"sync"

	"github.com/deusflow/NewsBrief/internal/logger"
)

// RequestBudget caps how many model requests a single run may spend.
// A max of 0 means unlimited.
type RequestBudget struct {
	mu   sync.Mutex
	max  int
	used int
}

func NewRequestBudget(max int) *RequestBudget {
	return &RequestBudget{max: max}
}

// Allow reserves one request from the budget. Once the budget is exhausted it
// keeps returning false for the rest of the run.
func (b *RequestBudget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.used >= b.max {
		logger.Warn("model request budget exhausted", "used", b.used, "max", b.max)
		return false
	}

	b.used++
	return true
}

// Used returns how many requests have been spent so far.
func (b *RequestBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}
