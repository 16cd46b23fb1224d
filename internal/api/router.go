package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/scoring_service/internal/metrics"
	"github.com/R3E-Network/scoring_service/internal/middleware"
	"github.com/R3E-Network/scoring_service/pkg/logger"
)

// Pinger reports store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires the HTTP routes and middleware around the handler. The
// pinger may be nil when no connectivity check is available.
func NewRouter(h *Handler, pinger Pinger, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("http")
	}

	r := mux.NewRouter()
	r.Use(middleware.Tracing(log))
	r.Use(metrics.Instrument)

	r.HandleFunc("/method", h.ServeMethod).Methods(http.MethodPost)
	r.HandleFunc("/health", healthHandler(pinger)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, errorText[http.StatusNotFound], http.StatusNotFound)
	})
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return r
}

func healthHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "store": "ok"}
		code := http.StatusOK

		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				status["status"] = "degraded"
				status["store"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
