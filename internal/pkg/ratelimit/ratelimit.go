// Package ratelimit enforces per-IP fixed-window request quotas per
// endpoint class. The counter store is an abuse deterrent, not a security
// boundary: when it is unreachable the limiter fails open.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ameibeauty/cards/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
)

// Endpoint classes keyed by the kind of abuse they attract.
const (
	ClassRead    = "read"
	ClassWrite   = "write"
	ClassAuth    = "auth"
	ClassUpload  = "upload"
	ClassSearch  = "search"
	ClassPayment = "payment"
)

// Config is one entry of the static per-class limit table.
type Config struct {
	MaxRequests   int
	WindowSeconds int64
}

// Limits is the static table of per-class quotas.
var Limits = map[string]Config{
	ClassRead:    {MaxRequests: 100, WindowSeconds: 60},
	ClassWrite:   {MaxRequests: 20, WindowSeconds: 60},
	ClassAuth:    {MaxRequests: 10, WindowSeconds: 60},
	ClassUpload:  {MaxRequests: 10, WindowSeconds: 60},
	ClassSearch:  {MaxRequests: 50, WindowSeconds: 60},
	ClassPayment: {MaxRequests: 5, WindowSeconds: 60},
}

// Result is the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   int64
}

// Limiter checks request quotas against a Counter backend.
type Limiter struct {
	counter   Counter
	appPrefix string
	now       func() time.Time
}

// New creates a limiter. A nil counter means no backend is configured and
// every check is allowed.
func New(counter Counter, appPrefix string) *Limiter {
	if appPrefix == "" {
		appPrefix = "amei-beauty"
	}
	return &Limiter{counter: counter, appPrefix: appPrefix, now: time.Now}
}

// NewFromEnv creates the production limiter backed by the shared cache.
func NewFromEnv() *Limiter {
	return New(NewRedisCounter(), env.GetEnv("RATE_LIMIT_APP_PREFIX", "amei-beauty"))
}

// Check counts the request against the client's window for the class and
// decides whether it may proceed.
func (l *Limiter) Check(ctx context.Context, clientIP, class string) Result {
	cfg, ok := Limits[class]
	if !ok {
		cfg = Limits[ClassRead]
	}

	now := l.now().Unix()
	windowStart := now / cfg.WindowSeconds * cfg.WindowSeconds
	resetAt := windowStart + cfg.WindowSeconds

	if l.counter == nil {
		log.Print("rate limit counter not configured, allowing request")
		return Result{Allowed: true, Limit: cfg.MaxRequests, Remaining: cfg.MaxRequests, ResetAt: resetAt}
	}

	key := l.key(class, clientIP, windowStart)
	ttl := time.Duration(cfg.WindowSeconds+1) * time.Second
	count, err := l.counter.Increment(ctx, key, ttl)
	if err != nil {
		// Fail open: availability over strict enforcement.
		log.Printf("rate limit backend unavailable, allowing request: %v", err)
		return Result{Allowed: true, Limit: cfg.MaxRequests, Remaining: cfg.MaxRequests, ResetAt: resetAt}
	}

	if count > int64(cfg.MaxRequests) {
		return Result{Allowed: false, Limit: cfg.MaxRequests, Remaining: 0, ResetAt: resetAt}
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Limit: cfg.MaxRequests, Remaining: remaining, ResetAt: resetAt}
}

func (l *Limiter) key(class, ip string, windowStart int64) string {
	return fmt.Sprintf("%s:rate_limit:%s:%s:%d", l.appPrefix, class, ip, windowStart)
}

// ClientIP resolves the caller address: trusted edge header first, then
// the first forwarded-for hop, else a shared "unknown" bucket.
func ClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	return "unknown"
}

// ClassifyEndpoint maps a request path and method to an endpoint class.
func ClassifyEndpoint(path, method string) string {
	if strings.Contains(path, "/payment/") {
		return ClassPayment
	}
	if strings.Contains(path, "/upload") {
		return ClassUpload
	}
	if method == fiber.MethodPost || method == fiber.MethodPut || method == fiber.MethodDelete {
		if strings.Contains(path, "/publish") || strings.Contains(path, "/card/") {
			return ClassAuth
		}
		return ClassWrite
	}
	if strings.Contains(path, "/search") || strings.Contains(path, "/directory") {
		return ClassSearch
	}
	return ClassRead
}
