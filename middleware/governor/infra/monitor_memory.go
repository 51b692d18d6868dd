package infra

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"request-governor/middleware/governor/domain"
)

// DefaultMonitorCapacity é o tamanho do anel de requisições recentes quando
// nenhum é configurado.
const DefaultMonitorCapacity = 1000

// MemoryMonitor é a contabilidade em memória dos desfechos de requisição:
// um anel limitado de registros recentes, agregados por caminho e contadores
// globais. Tudo sob um único mutex; leituras devolvem cópias.
//
// Nada sobrevive a restart do processo. O monitor é observabilidade,
// não sistema de registro.
type MemoryMonitor struct {
	mu sync.Mutex

	clock    domain.Clock
	capacity int

	// anel: head aponta o registro mais antigo, size <= capacity sempre
	records []domain.RequestRecord
	head    int
	size    int

	endpoints map[string]*endpointAgg

	totalRequests int64
	totalErrors   int64
	startTime     time.Time
}

// endpointAgg são os contadores crus por caminho. Só crescem; reset é
// restart do processo.
type endpointAgg struct {
	count     int64
	errors    int64
	totalTime float64
}

type MonitorOption func(*MemoryMonitor)

// WithMonitorClock troca a fonte de tempo (testes).
func WithMonitorClock(clk domain.Clock) MonitorOption {
	return func(m *MemoryMonitor) { m.clock = clk }
}

func NewMemoryMonitor(capacity int, opts ...MonitorOption) *MemoryMonitor {
	if capacity <= 0 {
		capacity = DefaultMonitorCapacity
	}
	m := &MemoryMonitor{
		clock:     domain.SystemClock{},
		capacity:  capacity,
		records:   make([]domain.RequestRecord, capacity),
		endpoints: make(map[string]*endpointAgg),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startTime = m.clock.Now()
	return m
}

func (m *MemoryMonitor) Capacity() int { return m.capacity }

// Record implementa domain.Recorder. Nunca falha e aceita qualquer valor:
// validação é problema de quem produz os dados.
func (m *MemoryMonitor) Record(_ context.Context, rec domain.RequestRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.clock.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.size < m.capacity {
		m.records[(m.head+m.size)%m.capacity] = rec
		m.size++
	} else {
		// cheio: sobrescreve o mais antigo
		m.records[m.head] = rec
		m.head = (m.head + 1) % m.capacity
	}

	agg, ok := m.endpoints[rec.Path]
	if !ok {
		agg = &endpointAgg{}
		m.endpoints[rec.Path] = agg
	}
	agg.count++
	agg.totalTime += rec.Duration
	if rec.IsError() {
		agg.errors++
	}

	m.totalRequests++
	if rec.IsError() {
		m.totalErrors++
	}
	return nil
}

// Statistics devolve uma foto consistente: o lock cobre o cálculo inteiro,
// então o snapshot corresponde a um ponto único na serialização dos Records.
func (m *MemoryMonitor) Statistics() domain.StatsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	uptime := m.clock.Now().Sub(m.startTime).Seconds()

	snap := domain.StatsSnapshot{
		UptimeSeconds: uptime,
		UptimeHuman:   formatUptime(uptime),
		TotalRequests: m.totalRequests,
		TotalErrors:   m.totalErrors,
		Endpoints:     make(map[string]domain.EndpointStat, len(m.endpoints)),
	}
	if m.totalRequests > 0 {
		snap.ErrorRate = float64(m.totalErrors) / float64(m.totalRequests) * 100
	}
	if uptime > 0 {
		snap.RequestsPerSecond = float64(m.totalRequests) / uptime
	}

	for path, agg := range m.endpoints {
		st := domain.EndpointStat{
			Count:  agg.count,
			Errors: agg.errors,
		}
		if agg.count > 0 {
			st.ErrorRate = float64(agg.errors) / float64(agg.count) * 100
			st.AvgResponseTime = agg.totalTime / float64(agg.count)
		}
		snap.Endpoints[path] = st
	}
	return snap
}

// RecentRequests devolve a cauda do anel (mais recente por último), no máximo
// `limit` entradas. limit <= 0 devolve nada; o teto sensato (ex: 100) é
// responsabilidade do chamador HTTP.
func (m *MemoryMonitor) RecentRequests(limit int) []domain.RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || m.size == 0 {
		return nil
	}
	n := limit
	if n > m.size {
		n = m.size
	}
	out := make([]domain.RequestRecord, 0, n)
	for i := m.size - n; i < m.size; i++ {
		out = append(out, m.records[(m.head+i)%m.capacity])
	}
	return out
}

// RecentErrors filtra o mesmo anel por status >= 400 e devolve a cauda.
func (m *MemoryMonitor) RecentErrors(limit int) []domain.RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || m.size == 0 {
		return nil
	}
	var errs []domain.RequestRecord
	for i := 0; i < m.size; i++ {
		rec := m.records[(m.head+i)%m.capacity]
		if rec.IsError() {
			errs = append(errs, rec)
		}
	}
	if len(errs) > limit {
		errs = errs[len(errs)-limit:]
	}
	return errs
}

// formatUptime decompõe segundos inteiros em dias/horas/minutos/segundos,
// emitindo só as unidades > 0 (e "0 seconds" quando tudo trunca pra zero).
// O rótulo é sempre plural: "1 days" é o formato, não um typo.
func formatUptime(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}

	days := total / 86400
	rem := total % 86400
	hours := rem / 3600
	rem %= 3600
	minutes := rem / 60
	secs := rem % 60

	var parts []string
	if days > 0 {
		parts = append(parts, strconv.FormatInt(days, 10)+" days")
	}
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+" hours")
	}
	if minutes > 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+" minutes")
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(secs, 10)+" seconds")
	}
	return strings.Join(parts, ", ")
}
