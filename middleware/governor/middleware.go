package governor

import (
	"net"
	"net/http"
	"strings"
	"time"

	"request-governor/middleware/governor/application"
	"request-governor/middleware/governor/domain"

	"go.uber.org/zap"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	Limiter             domain.Admitter
	Clock               domain.Clock
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	Logger              *zap.Logger
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip
					}
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// Middleware aplica a admissão antes do próximo handler.
//
// Rejeição responde opts.RejectStatus (429 por padrão) com X-RateLimit-Limit,
// X-RateLimit-Remaining e Retry-After; a requisição barrada não segue adiante,
// então nada dela chega no middleware de observação nem nos sinks.
// Com AddRateLimitHeaders os X-RateLimit-* saem também nas admitidas.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	svc := application.AdmitService{
		Limiter:    opts.Limiter,
		Clock:      opts.Clock,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			res := svc.Decide(domain.Key(key))

			if opts.AddRateLimitHeaders || !res.Admitted {
				remaining := res.Limit - res.CurrentCount
				if remaining < 0 {
					remaining = 0
				}
				w.Header().Set("X-RateLimit-Limit", formatInt(res.Limit))
				w.Header().Set("X-RateLimit-Remaining", formatInt(remaining))
			}

			if !res.Admitted {
				w.Header().Set("Retry-After", formatInt(retryAfterSeconds(res.RetryAfter)))
				if opts.Logger != nil {
					opts.Logger.Warn("rate limit exceeded",
						zap.String("key", key),
						zap.Int("count", res.CurrentCount),
						zap.Int("limit", res.Limit))
				}
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
