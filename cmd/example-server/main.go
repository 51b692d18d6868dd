package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"request-governor/middleware/governor"
	"request-governor/middleware/governor/application"
	"request-governor/middleware/governor/domain"
	"request-governor/middleware/governor/infra"
)

func main() {
	// Exemplo: injetando o governador direto no seu webserver (sem proxy)
	store := infra.NewWindowStore(60, time.Minute)
	monitor := infra.NewMemoryMonitor(infra.DefaultMonitorCapacity)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/governor/", http.StripPrefix("/governor",
		governor.NewReportHandler(governor.ReportOptions{Monitor: monitor})))

	h := http.Handler(mux)
	h = governor.Observe(governor.ObserveOptions{
		Recorders: application.RecordService{Sinks: []domain.Recorder{monitor}},
	})(h)
	h = governor.Middleware(governor.Options{
		Limiter:             store,
		KeyHeader:           "X-Api-Key", // ou vazio para usar IP
		TrustXForwardedFor:  true,
		AddRateLimitHeaders: true,
	})(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("example server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %s", err)
	}
}
