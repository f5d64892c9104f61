package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/metrics"
)

// Limit is one admission tier: at most MaxRequests per Window.
type Limit struct {
	Window      time.Duration
	MaxRequests int
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter reports how long the caller should wait before retrying,
// rounded up to whole seconds for the Retry-After header.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait.Round(time.Second) + time.Second
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window counter keyed by caller identity. Windows
// are created lazily on first use and purged once expired.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   Limit
	logger  *zap.Logger
	stop    chan struct{}
}

type Config struct {
	Window      time.Duration
	MaxRequests int
	Logger      *zap.Logger
}

func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 60
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	l := &Limiter{
		windows: make(map[string]*window),
		limit:   Limit{Window: cfg.Window, MaxRequests: cfg.MaxRequests},
		logger:  cfg.Logger,
		stop:    make(chan struct{}),
	}

	go l.purgeLoop()

	return l
}

// Check records one request against key and reports whether it is
// admitted. The window resets once its expiry passes.
func (l *Limiter) Check(key string) Decision {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.limit.Window)}
		l.windows[key] = w
	}

	if w.count >= l.limit.MaxRequests {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Decision{
		Allowed:   true,
		Remaining: l.limit.MaxRequests - w.count,
		ResetAt:   w.resetAt,
	}
}

func (l *Limiter) purgeLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, w := range l.windows {
				if now.After(w.resetAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *Limiter) Close() {
	close(l.stop)
}

// Middleware enforces the limit per tenant, falling back to the source
// address when no tenant header is present.
func (l *Limiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if tenant := c.Get("X-Tenant-ID"); tenant != "" {
			key = tenant
		}

		decision := l.Check(key)

		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := decision.RetryAfter(time.Now())
			l.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.Path()),
				zap.Duration("retry_after", retryAfter),
			)
			metrics.RecordRateLimitDenial(key)

			c.Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": int(retryAfter.Seconds()),
			})
		}

		return c.Next()
	}
}
