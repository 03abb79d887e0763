package web

import (
	"net/http"

	"commandx/internal/logger"
)

// authCallback handles GET /auth/callback. The hosted auth provider redirects
// here with the session tokens in the URL fragment, which browsers never send
// to the server. The page hands the fragment to the desktop app's
// <scheme>://auth/callback deep link.
func (h *Handler) authCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")

	data := struct{ Target string }{Target: h.appScheme + "://auth/callback"}
	if err := h.callback.Execute(w, data); err != nil {
		log := logger.WithComponent("http")
		log.Error().Err(err).Msg("render auth callback")
	}
}
