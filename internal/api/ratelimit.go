package api

import (
	"net/http"
	"slices"

	"github.com/recipeapp/recipe-server/internal/http/response"
	"github.com/recipeapp/recipe-server/internal/ratelimit"
)

// authRateLimit limits POSTs to the given paths by client IP. Other requests
// pass straight through. Returns 429 Too Many Requests when the limit is
// exceeded.
func (s *Server) authRateLimit(paths ...string) func(http.Handler) http.Handler {
	onLimited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn("rate limit exceeded",
			"ip", ratelimit.ClientIP(r),
			"path", r.URL.Path,
		)
		response.TooManyRequests(w, "too many requests, please try again later", s.logger)
	})
	limit := s.authLimiter.Middleware(onLimited)

	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && slices.Contains(paths, r.URL.Path) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
