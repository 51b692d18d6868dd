package domain

import (
	"context"
	"time"
)

// RequestRecord é o retrato imutável de uma requisição concluída.
//
// Duration é em segundos. Error carrega a mensagem original (se houve);
// string vazia significa "sem erro registrado". O record não valida nada:
// duração negativa, status esquisito etc. entram como vieram.
type RequestRecord struct {
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	Duration   float64   `json:"duration"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error,omitempty"`
}

// IsError segue a convenção HTTP: status >= 400 conta como erro.
func (r RequestRecord) IsError() bool { return r.StatusCode >= 400 }

// Recorder é a estratégia de persistência de desfechos de requisição.
//
// Implementações podem guardar em memória, Redis, etc.
// Quem chama deve tratar erro como best-effort (não derrubar a request).
type Recorder interface {
	Record(ctx context.Context, rec RequestRecord) error
}

// EndpointStat é a visão derivada por caminho.
type EndpointStat struct {
	Count           int64   `json:"count"`
	Errors          int64   `json:"errors"`
	ErrorRate       float64 `json:"error_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// StatsSnapshot é uma foto pontual e internamente consistente do monitor.
//
// ErrorRate é percentual (0..100). Divisões por zero viram 0, nunca NaN.
type StatsSnapshot struct {
	UptimeSeconds     float64                 `json:"uptime_seconds"`
	UptimeHuman       string                  `json:"uptime_human"`
	TotalRequests     int64                   `json:"total_requests"`
	TotalErrors       int64                   `json:"total_errors"`
	ErrorRate         float64                 `json:"error_rate"`
	RequestsPerSecond float64                 `json:"requests_per_second"`
	Endpoints         map[string]EndpointStat `json:"endpoints"`
}
