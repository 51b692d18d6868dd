package application

import (
	"time"

	"request-governor/middleware/governor/domain"
)

// AdmitService concentra a política de admissão.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas consulta o limiter
// com o relógio configurado e resolve o Retry-After recomendado.
type AdmitService struct {
	Limiter domain.Admitter
	Clock   domain.Clock
	// RetryAfter é o fallback quando a janela não sugere um valor.
	RetryAfter time.Duration
}

func (s AdmitService) Decide(key domain.Key) domain.AdmitResult {
	if s.Limiter == nil {
		return domain.AdmitResult{Admitted: true}
	}

	clk := s.Clock
	if clk == nil {
		clk = domain.SystemClock{}
	}
	fallback := s.RetryAfter
	if fallback <= 0 {
		fallback = 1 * time.Second
	}

	res := s.Limiter.Admit(key, clk.Now())
	if !res.Admitted && res.RetryAfter <= 0 {
		res.RetryAfter = fallback
	}
	return res
}
