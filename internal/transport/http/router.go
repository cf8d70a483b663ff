package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vehicle-accounting/gps/internal/auth"
	"vehicle-accounting/gps/internal/transport/ws"
)

func NewRouter(h *Handler, authn *auth.Authenticator, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.Root)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if hub != nil {
		r.Get("/ws", hub.Handle)
	}

	r.Group(func(r chi.Router) {
		if authn != nil && authn.Enabled() {
			r.Use(APIKeyMiddleware(authn))
		}
		r.Post("/gps", h.ReceiveGPS)
	})

	return r
}
