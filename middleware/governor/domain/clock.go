package domain

import (
	"sync"
	"time"
)

// Clock abstrai a fonte de tempo usada pelo limiter e pelo monitor.
//
// Injetar o relógio (em vez de chamar time.Now direto) deixa os testes
// determinísticos: dá pra "avançar" a janela sem dormir de verdade.
type Clock interface {
	Now() time.Time
}

// SystemClock usa o relógio do processo. É o padrão em produção.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock é um relógio controlado à mão, para testes.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance move o relógio para frente.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set posiciona o relógio num instante absoluto.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
