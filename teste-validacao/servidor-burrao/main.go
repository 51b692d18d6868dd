package main

import (
	"fmt"
	"net/http"
	"time"
)

// Upstream burro pra validar o gateway na mão: um endpoint rápido, um lento
// e um que sempre falha (pra aparecer em /governor/errors).
func main() {
	http.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"prediction":"setosa"}`)
		fmt.Println("Log: alguém acessou /predict")
	})
	http.HandleFunc("/lento", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprintf(w, "demorei, mas cheguei\n")
	})
	http.HandleFunc("/quebrado", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "deu ruim", http.StatusInternalServerError)
	})

	fmt.Println("Upstream rodando em http://localhost:8082")
	err := http.ListenAndServe(":8082", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
