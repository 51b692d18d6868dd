package governor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"request-governor/middleware/governor/domain"
	"request-governor/middleware/governor/infra"

	"golang.org/x/time/rate"
)

const (
	reportDefaultLimit = 10
	reportMaxLimit     = 100
)

type ReportOptions struct {
	Monitor *infra.MemoryMonitor

	// Guarda de abuso dos endpoints de relatório (token bucket).
	// Aqui rajada tolerada é o comportamento certo, diferente da admissão
	// de clientes, que exige janela exata.
	RPS   float64
	Burst int
}

// NewReportHandler expõe o monitor para o operador:
//
//	GET /stats              foto agregada (§ uptime, totais, por endpoint)
//	GET /requests?limit=N   últimas requisições (mais recente por último)
//	GET /errors?limit=N     últimos erros (status >= 400)
//
// limit é grampeado em 1..100, padrão 10.
func NewReportHandler(opts ReportOptions) http.Handler {
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	guard := rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst)

	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, opts.Monitor.Statistics())
	})
	mux.HandleFunc("/requests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, nonNil(opts.Monitor.RecentRequests(reportLimit(r))))
	})
	mux.HandleFunc("/errors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, nonNil(opts.Monitor.RecentErrors(reportLimit(r))))
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if !guard.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// reportLimit lê ?limit= e grampeia em 1..100 (componente não impõe teto,
// o handler sim).
func reportLimit(r *http.Request) int {
	limit := reportDefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > reportMaxLimit {
		limit = reportMaxLimit
	}
	return limit
}

// nonNil troca slice nula por vazia: o JSON sai "[]", não "null".
func nonNil(recs []domain.RequestRecord) []domain.RequestRecord {
	if recs == nil {
		return []domain.RequestRecord{}
	}
	return recs
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
