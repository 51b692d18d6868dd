package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"request-governor/middleware/governor"
	"request-governor/middleware/governor/application"
	"request-governor/middleware/governor/domain"
	"request-governor/middleware/governor/infra"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env é conveniência de desenvolvimento; ausência não é erro
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("config error", zap.Error(err))
	}

	logger, err := newLogger(cfg.logLevel)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("logger error", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal("invalid UPSTREAM_URL", zap.Error(err))
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("proxy error", zap.Error(err), zap.String("path", r.URL.Path))
		// o erro original vai junto no record da requisição
		governor.WithError(r.Context(), err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	store := infra.NewWindowStore(cfg.maxRequests, cfg.window)
	monitor := infra.NewMemoryMonitor(cfg.recorderCapacity)

	sinks := []domain.Recorder{monitor}
	if cfg.mirrorEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.mirrorRedisAddr,
			Password: cfg.mirrorRedisPassword,
			DB:       cfg.mirrorRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Fatal("redis mirror ping error", zap.Error(err))
		}

		sinks = append(sinks, infra.NewRedisRecorder(
			rdb,
			infra.WithRedisPrefix(cfg.mirrorPrefix),
			infra.WithRedisTTL(cfg.mirrorTTL),
			infra.WithRedisBucket(cfg.mirrorBucket),
		))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	r := chi.NewRouter()
	r.Use(governor.RequestID)

	// endpoints do operador: fora da admissão de clientes, com guarda própria
	r.Mount("/governor", governor.NewReportHandler(governor.ReportOptions{
		Monitor: monitor,
		RPS:     cfg.reportRPS,
		Burst:   cfg.reportBurst,
	}))

	r.Group(func(gr chi.Router) {
		gr.Use(governor.Middleware(governor.Options{
			Limiter:             store,
			KeyHeader:           cfg.keyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			RejectStatus:        http.StatusTooManyRequests,
			RetryAfter:          cfg.retryAfter,
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              logger,
		}))
		gr.Use(governor.InflightMiddleware(governor.InflightOptions{
			Max:            cfg.inflightMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.inflightTimeout,
		}))
		gr.Use(governor.Observe(governor.ObserveOptions{
			Recorders: application.RecordService{Sinks: sinks, Logger: logger},
			Logger:    logger,
		}))
		gr.Handle("/*", proxy)
	})

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()))
	logger.Info("admission",
		zap.Int("max_requests", cfg.maxRequests),
		zap.Duration("window", cfg.window),
		zap.String("key_header", cfg.keyHeader),
		zap.Bool("trust_xff", cfg.trustXFF))
	logger.Info("recorder",
		zap.Int("capacity", cfg.recorderCapacity),
		zap.Bool("redis_mirror", cfg.mirrorEnabled))
	logger.Info("inflight",
		zap.Int("max", cfg.inflightMax),
		zap.Duration("acquire_timeout", cfg.inflightTimeout))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type config struct {
	listenAddr  string
	upstreamURL string
	logLevel    string

	maxRequests int
	window      time.Duration
	keyHeader   string
	trustXFF    bool
	retryAfter  time.Duration
	addHeaders  bool

	recorderCapacity int

	inflightMax     int
	inflightTimeout time.Duration

	reportRPS   float64
	reportBurst int

	mirrorEnabled       bool
	mirrorRedisAddr     string
	mirrorRedisPassword string
	mirrorRedisDB       int
	mirrorPrefix        string
	mirrorTTL           time.Duration
	mirrorBucket        string
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")

	cfg.maxRequests = getenvIntDefault("GOV_MAX_REQUESTS", 60)
	cfg.window = getenvDurationDefault("GOV_WINDOW", 60*time.Second)
	cfg.keyHeader = os.Getenv("GOV_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", 1*time.Second)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", true)

	cfg.recorderCapacity = getenvIntDefault("GOV_RECORDER_CAPACITY", infra.DefaultMonitorCapacity)

	cfg.inflightMax = getenvIntDefault("INFLIGHT_MAX", 100)
	cfg.inflightTimeout = getenvDurationDefault("INFLIGHT_TIMEOUT", 0)

	cfg.reportRPS = getenvFloatDefault("REPORT_RPS", 5)
	cfg.reportBurst = getenvIntDefault("REPORT_BURST", 10)

	cfg.mirrorEnabled = getenvBoolDefault("GOV_MIRROR_ENABLED", false)
	cfg.mirrorRedisAddr = getenvDefault("GOV_MIRROR_REDIS_ADDR", "")
	cfg.mirrorRedisPassword = os.Getenv("GOV_MIRROR_REDIS_PASSWORD")
	cfg.mirrorRedisDB = getenvIntDefault("GOV_MIRROR_REDIS_DB", 0)
	cfg.mirrorPrefix = getenvDefault("GOV_MIRROR_PREFIX", "governor:requests")
	cfg.mirrorTTL = getenvDurationDefault("GOV_MIRROR_TTL", 24*time.Hour)
	cfg.mirrorBucket = getenvDefault("GOV_MIRROR_BUCKET", "minute")

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.maxRequests <= 0 {
		return config{}, errors.New("GOV_MAX_REQUESTS must be > 0")
	}
	if cfg.window <= 0 {
		return config{}, errors.New("GOV_WINDOW must be > 0")
	}
	if cfg.recorderCapacity <= 0 {
		return config{}, errors.New("GOV_RECORDER_CAPACITY must be > 0")
	}
	if cfg.inflightMax < 0 {
		return config{}, errors.New("INFLIGHT_MAX must be >= 0")
	}
	if cfg.mirrorEnabled && strings.TrimSpace(cfg.mirrorRedisAddr) == "" {
		return config{}, errors.New("GOV_MIRROR_REDIS_ADDR is required when GOV_MIRROR_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
