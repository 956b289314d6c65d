package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all historical close routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/closes", h.HandleSaveCloses)
	r.Get("/closes/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		ticker := chi.URLParam(r, "ticker")
		h.HandleGetCloses(w, r, ticker)
	})
}
