// Package application contém os casos de uso do governador: decisão de
// admissão, despacho de desfechos para os sinks e aquisição de vaga de
// concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
package application
