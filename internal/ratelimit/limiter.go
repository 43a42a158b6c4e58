// Package ratelimit provides per-client request rate limiting for the API.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	Requests int           // Requests allowed per Window (default: 120)
	Window   time.Duration // Refill period for Requests (default: 1m)
	Burst    int           // Requests allowed back to back (default: Requests)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Requests: 120,
		Window:   time.Minute,
		Burst:    120,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// client tracks one caller's token bucket.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps a token bucket per client key.
type Limiter struct {
	config *Config
	clock  Clock
	limit  rate.Limit
	mu     sync.Mutex
	// Keyed by hash of client IP
	clients map[string]*client

	// Cleanup goroutine management
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultConfig().Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Requests
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		limit:         rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		clients:       make(map[string]*client),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Allow consumes one token for key. When the bucket is empty nothing is
// consumed and RetryAfter says when the next token arrives.
func (l *Limiter) Allow(key string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	hashed := hashKey(key)

	l.mu.Lock()
	c := l.clients[hashed]
	if c == nil {
		c = &client{limiter: rate.NewLimiter(l.limit, l.config.Burst)}
		l.clients[hashed] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	reservation := c.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return LimitResult{Allowed: false, RetryAfter: l.config.Window}
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return LimitResult{Allowed: false, RetryAfter: delay}
	}
	return LimitResult{Allowed: true}
}

func hashKey(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

// cleanup drops clients idle long enough for their bucket to have refilled.
func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > l.config.Window {
			delete(l.clients, k)
		}
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost IP from X-Forwarded-For (added by your proxy).
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Use RIGHTMOST IP - this is the one your proxy added, not user-supplied
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				// Skip private/internal IPs to find the real client
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			// All IPs are private, use the last one
			return strings.TrimSpace(parts[len(parts)-1])
		}

		// Check X-Real-IP (set by nginx)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	// Fall back to RemoteAddr (direct connection or untrusted proxy)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

// privateNetworks holds parsed CIDR ranges for private/reserved IPs.
var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10", // Link-local
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP checks if an IP is in a private/reserved range.
// Handles both IPv4 and IPv4-mapped IPv6 addresses (e.g., ::ffff:192.168.1.1).
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}

	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// LogRateLimitExceeded logs a rejected request.
func LogRateLimitExceeded(ctx context.Context, ip, path string, retryAfter time.Duration) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("ip", ip).
		Str("path", path).
		Dur("retry_after", retryAfter).
		Msg("API rate limit exceeded")
}
