// internal/logger/logging.go
package logger

import (
	"log"
	"net/http"
)

// LogRequest is a middleware that logs incoming HTTP requests against
// the liveness/readiness endpoint every `serve` subcommand exposes (§5's "MUST not stall the processor's ability to
// serve liveness signals").
func LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("📥 %s %s", r.Method, r.URL.Path)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
