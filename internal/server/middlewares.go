package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/plugfox/helpdesk-server/api"
	"github.com/plugfox/helpdesk-server/internal/auth"
	"golang.org/x/time/rate"
)

// middlewareAuthentication attaches the identity of a valid Bearer token to
// the request context. Requests without a token pass through anonymous.
func middlewareAuthentication(tokens *auth.Provider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)

				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				api.NewResponse().SetError("Bearer token is required").Unauthorized(w)

				return
			}

			identity, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				api.NewResponse().SetError("Invalid or expired token").Unauthorized(w)

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// middlewarePreflight answers OPTIONS requests the CORS handler let through.
func middlewarePreflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)

			return
		}
		next.ServeHTTP(w, r)
	})
}

// middlewareErrorRecoverer recovers from panics and returns an error response.
func middlewareErrorRecoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if e, ok := err.(error); ok && errors.Is(e, http.ErrAbortHandler) {
						// the response to the client is aborted, this should not be logged
						panic(err)
					}

					logger.ErrorContext(r.Context(), "Recovered from panic",
						slog.String("error", fmt.Sprintf("%v", err)),
						slog.String("request_id", middleware.GetReqID(r.Context())),
					)

					api.NewResponse().SetError("internal server error").InternalServerError(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Limiters idle for longer than this are dropped.
const limiterIdleTimeout = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps a token bucket per caller: the user for authenticated
// requests, the remote address otherwise.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func newRateLimiter(requestsPerSecond float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.visitors) > 10000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTimeout {
				delete(rl.visitors, k)
			}
		}
	}

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// Handler rejects callers above their rate with 429. A zero rate disables it.
func (rl *rateLimiter) Handler(next http.Handler) http.Handler {
	if rl.rate <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(callerKey(r.Context(), r)) {
			api.NewResponse().SetError("Too many requests").TooManyRequests(w)

			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(ctx context.Context, r *http.Request) string {
	if identity, ok := auth.FromContext(ctx); ok {
		return "user:" + strconv.FormatInt(identity.UserID.ToInt64(), 10)
	}
	return "addr:" + r.RemoteAddr
}
