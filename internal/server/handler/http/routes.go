// Package http provides HTTP routing for the validator hub: the websocket
// upgrade endpoint and a health probe.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/avetisov/qrvalidator/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the hub.
//
// Routes:
//
//	GET /api/socket → hub (websocket upgrade; all further traffic is
//	                  envelopes on the socket)
//	GET /api/health → liveness probe
//
// Request logging wraps every route. Authentication is not an HTTP
// concern here: sessions authenticate inside the socket protocol.
func NewRouter(hub http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/socket", hub.ServeHTTP)
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	})

	return r
}
