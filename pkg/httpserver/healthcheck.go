package httpserver

import (
	"context"
	"net/http"
)

// Healthcheck returns a handler usable as a liveness or readiness probe.
// With no probes it always answers 200 "ok". With probes it runs each
// against the request context and answers 503 if any fails, so a lost
// database connection flips readiness without restarting the process.
func Healthcheck(probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
