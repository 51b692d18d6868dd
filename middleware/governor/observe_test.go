package governor

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"request-governor/middleware/governor/application"
	"request-governor/middleware/governor/domain"
	"request-governor/middleware/governor/infra"
)

func TestObserve_RecordsOutcome(t *testing.T) {
	clk := domain.NewManualClock(t0)
	mon := infra.NewMemoryMonitor(10, infra.WithMonitorClock(clk))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clk.Advance(250 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "done")
	})

	h := Observe(ObserveOptions{
		Recorders: application.RecordService{Sinks: []domain.Recorder{mon}},
		Clock:     clk,
	})(next)

	r := httptest.NewRequest(http.MethodPost, "http://example/items", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	recs := mon.RecentRequests(10)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Method != "POST" || rec.Path != "/items" || rec.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Duration != 0.25 {
		t.Fatalf("expected duration 0.25s, got %v", rec.Duration)
	}
	if rec.Error != "" {
		t.Fatalf("expected no error message, got %q", rec.Error)
	}
}

func TestObserve_DefaultStatusIs200(t *testing.T) {
	mon := infra.NewMemoryMonitor(10)

	// handler que escreve sem chamar WriteHeader
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "implicit")
	})

	h := Observe(ObserveOptions{
		Recorders: application.RecordService{Sinks: []domain.Recorder{mon}},
	})(next)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/", nil))

	recs := mon.RecentRequests(1)
	if len(recs) != 1 || recs[0].StatusCode != http.StatusOK {
		t.Fatalf("expected implicit 200, got %+v", recs)
	}
}

func TestObserve_CapturesHandlerError(t *testing.T) {
	mon := infra.NewMemoryMonitor(10)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WithError(r.Context(), errors.New("model not loaded"))
		http.Error(w, "internal", http.StatusInternalServerError)
	})

	h := Observe(ObserveOptions{
		Recorders: application.RecordService{Sinks: []domain.Recorder{mon}},
	})(next)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/predict", nil))

	errs := mon.RecentErrors(5)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error record, got %d", len(errs))
	}
	if errs[0].Error != "model not loaded" {
		t.Fatalf("expected captured error message, got %q", errs[0].Error)
	}
	if errs[0].StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", errs[0].StatusCode)
	}
}

func TestObserve_RejectedUpstreamNeverRecorded(t *testing.T) {
	// admissão antes da observação: a rejeitada não vira telemetria
	clk := domain.NewManualClock(t0)
	store := infra.NewWindowStore(1, time.Minute)
	mon := infra.NewMemoryMonitor(10, infra.WithMonitorClock(clk))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var h http.Handler = next
	h = Observe(ObserveOptions{
		Recorders: application.RecordService{Sinks: []domain.Recorder{mon}},
		Clock:     clk,
	})(h)
	h = Middleware(Options{Limiter: store, Clock: clk})(h)

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	snap := mon.Statistics()
	if snap.TotalRequests != 1 {
		t.Fatalf("expected only the admitted request recorded, got %d", snap.TotalRequests)
	}
}
