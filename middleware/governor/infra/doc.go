// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: sliding window log por chave (admissão exata)
//   - MemoryMonitor: contadores + anel de requisições recentes em memória
//   - RedisRecorder: espelho best-effort de desfechos em Redis
//   - SlotChan: semáforo simples para limite de requisições em voo
package infra
