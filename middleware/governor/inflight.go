package governor

import (
	"net/http"
	"time"

	"request-governor/middleware/governor/application"
	"request-governor/middleware/governor/infra"
)

type InflightOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// InflightMiddleware limita quantas requisições atravessam o gateway ao mesmo
// tempo. Saturou, responde 503 (ou o status configurado).
func InflightMiddleware(opts InflightOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.InflightService{
		Pool:           infra.NewSlotChan(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
