package governor

import (
	"context"
	"net/http"
	"sync"

	"request-governor/middleware/governor/application"
	"request-governor/middleware/governor/domain"

	"go.uber.org/zap"
)

// statusWriter embrulha o ResponseWriter para capturar status e bytes
// escritos. Handler que nunca chama WriteHeader conta como 200.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// errCapture viaja no contexto da requisição para o handler poder anexar a
// mensagem de erro original ao record.
type errCapture struct {
	mu  sync.Mutex
	msg string
}

type errCaptureKey struct{}

// WithError anexa a mensagem do erro ao record da requisição corrente.
// Fora de um middleware Observe, é um no-op.
func WithError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if c, ok := ctx.Value(errCaptureKey{}).(*errCapture); ok {
		c.mu.Lock()
		c.msg = err.Error()
		c.mu.Unlock()
	}
}

type ObserveOptions struct {
	Recorders application.RecordService
	Clock     domain.Clock
	Logger    *zap.Logger
}

// Observe cronometra a requisição e registra o desfecho nos sinks,
// incondicionalmente (sucesso ou falha do handler).
//
// Deve vir DEPOIS do Middleware de admissão na cadeia: requisição rejeitada
// lá nunca passa por aqui, e portanto não gera telemetria.
func Observe(opts ObserveOptions) func(next http.Handler) http.Handler {
	clk := opts.Clock
	if clk == nil {
		clk = domain.SystemClock{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := clk.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			capture := &errCapture{}
			ctx := context.WithValue(r.Context(), errCaptureKey{}, capture)

			next.ServeHTTP(sw, r.WithContext(ctx))

			end := clk.Now()
			capture.mu.Lock()
			msg := capture.msg
			capture.mu.Unlock()

			rec := domain.RequestRecord{
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: sw.status,
				Duration:   end.Sub(start).Seconds(),
				Timestamp:  end,
				Error:      msg,
			}
			opts.Recorders.Record(r.Context(), rec)

			if opts.Logger != nil {
				opts.Logger.Info("request completed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", sw.status),
					zap.Float64("duration", rec.Duration),
					zap.Int64("bytes", sw.bytes),
					zap.String("request_id", RequestIDFrom(r.Context())))
			}
		})
	}
}
