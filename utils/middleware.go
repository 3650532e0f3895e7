package utils

import (
	"sync"
	"time"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// AdminKeyMiddleware admits requests whose X-Admin-Key matches the bcrypt
// hash. An empty hash disables every admin route.
func AdminKeyMiddleware(hash string) iris.Handler {
	return func(ctx iris.Context) {
		if hash == "" {
			JSONError(ctx, iris.StatusForbidden, "forbidden", "admin access is not configured")
			return
		}
		key := ctx.GetHeader("X-Admin-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
			JSONError(ctx, iris.StatusForbidden, "forbidden", "admin access required")
			return
		}
		ctx.Next()
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// Evict drops clients not seen for longer than idle.
func (rl *RateLimiter) Evict(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.clients {
		if time.Since(c.lastSeen) > idle {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) Handler() iris.Handler {
	return func(ctx iris.Context) {
		if !rl.Allow(ctx.RemoteAddr()) {
			JSONError(ctx, iris.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}
