package infra

import (
	"sync"
	"time"

	"request-governor/middleware/governor/domain"
)

// WindowStore é a admissão por sliding window log: guarda, por chave, os
// timestamps das requisições admitidas na janela deslizante.
//
// Diferente de token bucket, o log é exato: o count é exatamente o número de
// admissões vivas na janela, e uma tentativa rejeitada não consome orçamento
// (um cliente inundando não "empurra" o próprio histórico pra fora).
//
// Custo: O(limit) de memória por chave e O(podadas) por chamada. Para os
// limites típicos de gateway isso é barato; para limites de milhares por
// segundo, prefira um algoritmo de contadores.
type WindowStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	limit        int
	window       time.Duration
	cleanupEvery time.Duration
}

type WindowOption func(*WindowStore)

func WithCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

func NewWindowStore(limit int, window time.Duration, opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		windows:      make(map[string][]time.Time),
		limit:        limit,
		window:       window,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) Limit() int                  { return s.limit }
func (s *WindowStore) Window() time.Duration       { return s.window }
func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Admit implementa domain.Admitter.
//
// Poda primeiro, decide depois. Timestamps idênticos (rajada) são entradas
// válidas, sem dedup. A janela é criada de forma preguiçosa na primeira
// requisição da chave.
func (s *WindowStore) Admit(key domain.Key, now time.Time) domain.AdmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.pruneLocked(string(key), now)

	if len(log) >= s.limit {
		res := domain.AdmitResult{
			Admitted:     false,
			CurrentCount: len(log),
			Limit:        s.limit,
		}
		if len(log) > 0 {
			// a entrada mais antiga é a primeira a expirar
			res.RetryAfter = log[0].Add(s.window).Sub(now)
		}
		return res
	}

	log = append(log, now)
	s.windows[string(key)] = log
	return domain.AdmitResult{
		Admitted:     true,
		CurrentCount: len(log),
		Limit:        s.limit,
	}
}

// pruneLocked descarta do início do log tudo que já saiu da janela.
// Uma entrada com idade exatamente igual à janela já expirou.
// Chamar com s.mu em posse.
func (s *WindowStore) pruneLocked(key string, now time.Time) []time.Time {
	log, ok := s.windows[key]
	if !ok {
		return nil
	}

	cutoff := now.Add(-s.window)
	drop := 0
	for drop < len(log) && !log[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		n := copy(log, log[drop:])
		log = log[:n]
		s.windows[key] = log
	}
	return log
}

// Cleanup poda todos os logs e remove as chaves que ficaram vazias.
//
// É a operação de manutenção explícita contra crescimento sem limite do mapa
// (muitos IPs distintos que nunca voltam). A correção da admissão não depende
// dela: Admit já poda a própria chave a cada chamada.
func (s *WindowStore) Cleanup(now time.Time) {
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, log := range s.windows {
		drop := 0
		for drop < len(log) && !log[drop].After(cutoff) {
			drop++
		}
		if drop == len(log) {
			delete(s.windows, key)
			continue
		}
		if drop > 0 {
			n := copy(log, log[drop:])
			s.windows[key] = log[:n]
		}
	}
}

// Tracked devolve quantas chaves o store conhece no momento.
func (s *WindowStore) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// StartJanitor inicia uma goroutine que roda Cleanup periodicamente.
// Pare cancelando o contexto. Opcional: sem janitor o mapa só cresce com
// chaves ociosas, nunca com timestamps expirados.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.Cleanup(now)
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
