// Package governor fornece adapters HTTP (net/http) para o governador de
// requisições: admissão por sliding window, observação de desfechos e
// endpoints de relatório para o operador.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão admit/reject, despacho de records,
//     aquisição de vaga) sem net/http
//   - infra: implementações concretas (window store, monitor em memória,
//     espelho Redis, semáforo), detalhes de infraestrutura
//   - governor (este pacote): middlewares HTTP + wiring/extração de chave +
//     tradução para status/headers + handlers JSON de relatório
//
// Fluxo no gateway:
//
//  1. Extrai a chave do cliente (IP/header/XFF)
//  2. Chama a camada application para obter a decisão de admissão
//  3. Se rejeitado, responde 429 com X-RateLimit-* e Retry-After; a requisição
//     rejeitada nunca chega no monitor (sem telemetria de tráfego barrado)
//  4. Se admitido, o middleware de observação cronometra a requisição e
//     registra método/caminho/status/duração/erro nos sinks
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o
// comportamento, como GOV_MAX_REQUESTS, GOV_WINDOW e GOV_RECORDER_CAPACITY.
package governor
