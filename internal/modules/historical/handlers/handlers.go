// Package handlers provides HTTP handlers for historical close data.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantnote/internal/modules/historical"
	"github.com/aristath/quantnote/internal/utils"
)

// Handler handles historical close HTTP requests
type Handler struct {
	store *historical.Store
	log   zerolog.Logger
}

// NewHandler creates a new historical close handler
func NewHandler(store *historical.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "historical").Logger(),
	}
}

// closeRequest is one daily close on the wire
type closeRequest struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
}

// HandleSaveCloses handles POST /api/history/closes
func (h *Handler) HandleSaveCloses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Closes []closeRequest `json:"closes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Closes) == 0 {
		h.writeError(w, http.StatusBadRequest, "no closes supplied")
		return
	}

	closes := make([]historical.DailyClose, 0, len(req.Closes))
	for _, c := range req.Closes {
		if c.Ticker == "" {
			h.writeError(w, http.StatusBadRequest, "close entry has no ticker")
			return
		}
		if c.Close <= 0 {
			h.writeError(w, http.StatusBadRequest, "close for "+c.Ticker+" must be positive")
			return
		}
		day, err := time.Parse(utils.Layout, c.Date)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid date "+c.Date+", expected YYYY-MM-DD")
			return
		}
		closes = append(closes, historical.DailyClose{Ticker: c.Ticker, Date: day, Close: c.Close})
	}

	if err := h.store.SaveCloses(closes); err != nil {
		h.log.Error().Err(err).Int("count", len(closes)).Msg("Failed to save daily closes")
		h.writeError(w, http.StatusInternalServerError, "failed to save closes")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"saved": len(closes)})
}

// HandleGetCloses handles GET /api/history/closes/{ticker}
func (h *Handler) HandleGetCloses(w http.ResponseWriter, r *http.Request, ticker string) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	closes, err := h.store.RecentCloses(ticker, limit)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get recent closes")
		h.writeError(w, http.StatusInternalServerError, "failed to get closes")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"closes": closes,
		"count":  len(closes),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
