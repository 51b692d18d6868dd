package infra

import (
	"context"

	"request-governor/middleware/governor/domain"
)

type slotChan struct {
	sem chan struct{}
}

// NewSlotChan cria um pool simples baseado em channel com capacidade `max`.
func NewSlotChan(max int) domain.SlotPool {
	return &slotChan{sem: make(chan struct{}, max)}
}

func (p *slotChan) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
