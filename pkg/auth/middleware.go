package auth

import (
	"net"
	"net/http"
	"strings"

	"flanergide/pkg/logger"
)

// SecConfig configures the edge middleware.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
	// Secret signs bearer tokens; empty disables auth entirely (trusted
	// local deployments).
	Secret string
}

// exemptPath reports whether a request may pass without a bearer token:
// liveness probes, metrics scrapes and the docs UI.
func exemptPath(r *http.Request) bool {
	p := r.URL.Path
	if p == "/api/health" || p == "/healthz" || p == "/readyz" {
		return r.Method == http.MethodGet
	}
	return p == "/metrics" || p == "/openapi.yaml" || strings.HasPrefix(p, "/docs")
}

// Middleware authenticates requests and applies CORS, security headers
// and per-caller rate limiting. The rate limiter is keyed by device id
// when authenticated, client IP otherwise.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			// CORS
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "no-referrer")

			// IP whitelist
			if len(cfg.IPWhitelist) > 0 {
				ip := clientIP(r)
				if !ipWhitelisted(ip, cfg.IPWhitelist) {
					logger.Warn("request_blocked", "reason", "ip_not_whitelisted", "ip", ip, "path", r.URL.Path)
					http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
					return
				}
			}

			if exemptPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			// Bearer auth
			device := ""
			if cfg.Secret != "" {
				tok := bearerToken(r)
				if tok == "" {
					logger.Warn("request_unauthorized", "reason", "missing_token", "path", r.URL.Path, "remote", r.RemoteAddr)
					http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
					return
				}
				var err error
				device, err = VerifyToken(cfg.Secret, tok)
				if err != nil {
					logger.Warn("request_unauthorized", "reason", "invalid_token", "path", r.URL.Path, "err", err)
					http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
					return
				}
				r = r.WithContext(withDevice(r.Context(), device))
			}

			// Rate limiting keyed by device, falling back to client IP
			key := device
			if key == "" {
				key = clientIP(r)
			}
			if !limiters.Allow(key) {
				logger.Warn("rate_limited", "key", key, "path", r.URL.Path)
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	// Direct connections expected; X-Forwarded-For is ignored.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ipWhitelisted(ip string, list []string) bool {
	for _, w := range list {
		if ip == w {
			return true
		}
	}
	return false
}
