package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

type ActorLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

func NewActorRateLimiter(r rate.Limit, b int) *ActorLimiter {
	return &ActorLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (a *ActorLimiter) getLimiter(key string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	limiter, exists := a.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(a.r, a.b)
		a.limiters[key] = limiter
	}
	return limiter
}

func RateLimitMiddleware(limiter *ActorLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var key string
			if actor, ok := GetActor(r.Context()); ok {
				key = fmt.Sprintf("%s:%d", actor.Role, actor.ID)
			} else {
				ip, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					ip = r.RemoteAddr
				}
				key = "ip:" + ip
			}
			if !limiter.getLimiter(key).Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
