package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/khairulanwar/clinic-api/pkg/httputil"
)

// LoginRateLimiter throttles login attempts per client IP, a cheap
// first line ahead of the ledger's per-username lockout.
type LoginRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewLoginRateLimiter(limit rate.Limit, burst int) *LoginRateLimiter {
	return &LoginRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (rl *LoginRateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[ip] = l
	}
	return l
}

func (rl *LoginRateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := httputil.ClientIP(c.Request)
		if !rl.limiter(ip).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				httputil.NewErrorResponse("too many requests"))
			return
		}
		c.Next()
	}
}
