// Package resilience provides spawn rate limiting and retry backoff.
package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter controls how often commands may be spawned.
type RateLimiter interface {
	// Allow checks if a spawn is allowed for the given program.
	Allow(program string) bool

	// Wait blocks until a spawn is allowed or the context is canceled.
	Wait(ctx context.Context, program string) error

	// SetLimit updates the rate limit for a program.
	SetLimit(program string, limit rate.Limit, burst int)
}

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// DefaultLimit is the default spawns per second.
	DefaultLimit float64 `yaml:"default_limit"`

	// DefaultBurst is the default burst size.
	DefaultBurst int `yaml:"default_burst"`

	// PerProgram enables per-program rate limiting.
	PerProgram bool `yaml:"per_program"`

	// ProgramLimits contains per-program rate limits.
	ProgramLimits map[string]ProgramLimit `yaml:"program_limits"`
}

// ProgramLimit defines the rate limit for a specific program.
type ProgramLimit struct {
	Limit float64 `yaml:"limit"`
	Burst int     `yaml:"burst"`
}

// DefaultRateLimiterConfig returns default configuration.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultLimit:  100,
		DefaultBurst:  150,
		PerProgram:    true,
		ProgramLimits: make(map[string]ProgramLimit),
	}
}

// rateLimiter implements RateLimiter.
type rateLimiter struct {
	config          RateLimiterConfig
	globalLimiter   *rate.Limiter
	programLimiters map[string]*rate.Limiter
	mu              sync.RWMutex
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) RateLimiter {
	rl := &rateLimiter{
		config:          config,
		globalLimiter:   rate.NewLimiter(rate.Limit(config.DefaultLimit), config.DefaultBurst),
		programLimiters: make(map[string]*rate.Limiter),
	}

	for program, limit := range config.ProgramLimits {
		rl.programLimiters[program] = rate.NewLimiter(rate.Limit(limit.Limit), limit.Burst)
	}

	return rl
}

// Allow implements RateLimiter.Allow.
func (rl *rateLimiter) Allow(program string) bool {
	if !rl.config.PerProgram {
		return rl.globalLimiter.Allow()
	}
	return rl.getLimiter(program).Allow()
}

// Wait implements RateLimiter.Wait.
func (rl *rateLimiter) Wait(ctx context.Context, program string) error {
	if !rl.config.PerProgram {
		return rl.globalLimiter.Wait(ctx)
	}
	return rl.getLimiter(program).Wait(ctx)
}

// SetLimit implements RateLimiter.SetLimit.
func (rl *rateLimiter) SetLimit(program string, limit rate.Limit, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.programLimiters[program]; ok {
		limiter.SetLimit(limit)
		limiter.SetBurst(burst)
	} else {
		rl.programLimiters[program] = rate.NewLimiter(limit, burst)
	}
}

func (rl *rateLimiter) getLimiter(program string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.programLimiters[program]
	rl.mu.RUnlock()

	if ok {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Re-check after acquiring the write lock.
	if limiter, ok := rl.programLimiters[program]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(rl.config.DefaultLimit), rl.config.DefaultBurst)
	rl.programLimiters[program] = limiter
	return limiter
}
