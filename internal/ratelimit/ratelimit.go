// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
    "net"
    "net/http"
    "strings"
    "sync"
    "time"
)

// Config holds rate limiting configuration
type Config struct {
    WindowSize    time.Duration // Time window for rate limiting
    MaxAttempts   int           // Maximum requests per window
    CleanupPeriod time.Duration // How often to clean up old entries
    BanDuration   time.Duration // Cooldown after exceeding the limit
}

// DefaultAPIConfig limits expensive endpoints (document loads, questions)
// to perMinute requests per client.
func DefaultAPIConfig(perMinute int) *Config {
    if perMinute <= 0 {
        perMinute = 30
    }
    return &Config{
        WindowSize:    time.Minute,
        MaxAttempts:   perMinute,
        CleanupPeriod: 5 * time.Minute,
        BanDuration:   time.Minute,
    }
}

// attemptRecord tracks requests for an IP/identifier
type attemptRecord struct {
    Count     int
    FirstSeen time.Time
    BannedAt  *time.Time
}

// RateLimitInfo contains information about rate limit status
type RateLimitInfo struct {
    Allowed    bool
    Limit      int
    Remaining  int
    ResetTime  time.Time
    RetryAfter time.Duration
    Banned     bool
}

// MemoryRateLimiter implements in-memory fixed-window rate limiting
type MemoryRateLimiter struct {
    config   *Config
    attempts map[string]*attemptRecord
    mu       sync.Mutex
    now      func() time.Time
    stopCh   chan struct{}
    stopOnce sync.Once
}

// NewMemoryRateLimiter creates a limiter and starts its cleanup goroutine;
// call Close to stop it.
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
    limiter := newLimiter(config, time.Now)
    go limiter.cleanupLoop()
    return limiter
}

func newLimiter(config *Config, now func() time.Time) *MemoryRateLimiter {
    return &MemoryRateLimiter{
        config:   config,
        attempts: make(map[string]*attemptRecord),
        now:      now,
        stopCh:   make(chan struct{}),
    }
}

// Allow counts one request for identifier and reports whether it may proceed.
func (rl *MemoryRateLimiter) Allow(identifier string) (bool, *RateLimitInfo) {
    rl.mu.Lock()
    defer rl.mu.Unlock()

    now := rl.now()
    max := rl.config.MaxAttempts
    record, exists := rl.attempts[identifier]

    if exists && record.BannedAt != nil {
        if elapsed := now.Sub(*record.BannedAt); elapsed < rl.config.BanDuration {
            return false, &RateLimitInfo{
                Limit:      max,
                ResetTime:  record.BannedAt.Add(rl.config.BanDuration),
                RetryAfter: rl.config.BanDuration - elapsed,
                Banned:     true,
            }
        }
        exists = false
    }

    if !exists || now.Sub(record.FirstSeen) > rl.config.WindowSize {
        rl.attempts[identifier] = &attemptRecord{Count: 1, FirstSeen: now}
        return true, &RateLimitInfo{
            Allowed:   true,
            Limit:     max,
            Remaining: max - 1,
            ResetTime: now.Add(rl.config.WindowSize),
        }
    }

    record.Count++
    if record.Count > max {
        banTime := now
        record.BannedAt = &banTime
        return false, &RateLimitInfo{
            Limit:      max,
            ResetTime:  now.Add(rl.config.BanDuration),
            RetryAfter: rl.config.BanDuration,
            Banned:     true,
        }
    }

    return true, &RateLimitInfo{
        Allowed:   true,
        Limit:     max,
        Remaining: max - record.Count,
        ResetTime: record.FirstSeen.Add(rl.config.WindowSize),
    }
}

// cleanupLoop periodically removes old records
func (rl *MemoryRateLimiter) cleanupLoop() {
    ticker := time.NewTicker(rl.config.CleanupPeriod)
    defer ticker.Stop()

    for {
        select {
        case <-ticker.C:
            rl.cleanup()
        case <-rl.stopCh:
            return
        }
    }
}

// cleanup removes expired records
func (rl *MemoryRateLimiter) cleanup() {
    rl.mu.Lock()
    defer rl.mu.Unlock()

    now := rl.now()
    for identifier, record := range rl.attempts {
        windowExpired := now.Sub(record.FirstSeen) > rl.config.WindowSize
        banExpired := record.BannedAt != nil && now.Sub(*record.BannedAt) > rl.config.BanDuration

        if (windowExpired && record.BannedAt == nil) || banExpired {
            delete(rl.attempts, identifier)
        }
    }
}

func (rl *MemoryRateLimiter) tracked() int {
    rl.mu.Lock()
    defer rl.mu.Unlock()
    return len(rl.attempts)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *MemoryRateLimiter) Close() {
    rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
    // Check for forwarded IP (behind proxy/load balancer)
    if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
        return ip
    }
    if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
        return realIP
    }

    ip, _, err := net.SplitHostPort(r.RemoteAddr)
    if err != nil {
        return r.RemoteAddr
    }
    return ip
}

// parseFirstIP extracts the first entry from a comma-separated list
func parseFirstIP(forwarded string) string {
    if forwarded == "" {
        return ""
    }
    first, _, _ := strings.Cut(forwarded, ",")
    return strings.TrimSpace(first)
}
