// Package ratelimit throttles MCP tool calls per tool name.
package ratelimit

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ToolLimiters maps tool names to their token buckets.
type ToolLimiters struct {
	limiters map[string]*rate.Limiter
	nowFunc  func() time.Time
}

// perMinute builds a bucket refilling n tokens per minute.
func perMinute(n float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(n/60.0), burst)
}

// NewToolLimiters creates the default set of per-tool limits. Running an
// experiment writes to the store, so it is throttled harder than reads.
func NewToolLimiters() *ToolLimiters {
	return &ToolLimiters{
		limiters: map[string]*rate.Limiter{
			"tank_register":       perMinute(10, 3),
			"tank_login":          perMinute(30, 5),
			"tank_run_experiment": perMinute(30, 5),
			"tank_latest_result":  perMinute(60, 10),
			"tank_history":        perMinute(60, 10),
			"tank_ranking":        perMinute(60, 10),
			"tank_backup":         perMinute(5, 1),
			"tank_restore":        perMinute(5, 1),
		},
		nowFunc: time.Now,
	}
}

// Set installs or replaces the limit for one tool.
func (l *ToolLimiters) Set(tool string, perSecond float64, burst int) {
	l.limiters[tool] = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Check returns nil if tool may run now. Tools without a configured
// limiter are always allowed.
func (l *ToolLimiters) Check(tool string) error {
	if l == nil {
		return nil
	}
	limiter, ok := l.limiters[tool]
	if !ok {
		return nil
	}
	if !limiter.AllowN(l.nowFunc(), 1) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", tool)
	}
	return nil
}
