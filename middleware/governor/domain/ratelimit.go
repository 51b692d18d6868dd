package domain

// Camada de domínio da admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

type Key string

// Admitter decide se uma requisição de uma chave entra agora.
//
// O contrato recebe `now` explícito: quem chama escolhe o relógio, e a
// implementação não precisa conhecer Clock nenhum.
type Admitter interface {
	Admit(key Key, now time.Time) AdmitResult
}

// AdmitResult é a decisão de admissão.
//
// CurrentCount é o número de requisições vivas na janela após a decisão:
// inclui a própria requisição quando admitida; quando rejeitada, a tentativa
// não consome orçamento e o count fica como estava.
type AdmitResult struct {
	Admitted     bool
	CurrentCount int
	Limit        int

	// RetryAfter: quando rejeitado, tempo até a entrada mais antiga sair da
	// janela. Se 0, não há recomendação (o chamador aplica um padrão).
	RetryAfter time.Duration
}
