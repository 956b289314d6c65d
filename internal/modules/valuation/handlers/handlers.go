// Package handlers provides HTTP handlers for note valuation requests.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/quantnote/internal/domain"
	"github.com/aristath/quantnote/internal/modules/lifecycle"
	"github.com/aristath/quantnote/internal/modules/snapshots"
	"github.com/aristath/quantnote/internal/modules/valuation"
	"github.com/aristath/quantnote/internal/utils"
)

// Handler handles valuation HTTP requests
type Handler struct {
	valuationSvc *valuation.Service
	fixings      lifecycle.FixingSource
	snapshotRepo *snapshots.Repository
	log          zerolog.Logger
}

// NewHandler creates a new valuation handler. fixings may be nil when no
// historical store is configured; snapshotRepo may be nil to disable
// persistence.
func NewHandler(
	valuationSvc *valuation.Service,
	fixings lifecycle.FixingSource,
	snapshotRepo *snapshots.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		valuationSvc: valuationSvc,
		fixings:      fixings,
		snapshotRepo: snapshotRepo,
		log:          log.With().Str("handler", "valuation").Logger(),
	}
}

// RegisterRoutes mounts the valuation endpoints
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/fcn", h.HandleValueFCN)
	r.Get("/snapshots", h.HandleListSnapshots)
	r.Get("/snapshots/{id}", h.HandleGetSnapshot)
}

// dividendRequest is one discrete dividend on the wire
type dividendRequest struct {
	ExDate string  `json:"ex_date"`
	Amount float64 `json:"amount"`
}

// underlyingRequest is one underlying on the wire
type underlyingRequest struct {
	Ticker      string            `json:"ticker"`
	InitialSpot float64           `json:"initial_spot"`
	CurrentSpot float64           `json:"current_spot,omitempty"`
	Dividends   []dividendRequest `json:"dividends,omitempty"`
}

// valuationRequest is the wire form of a pricing request. All dates use
// YYYY-MM-DD. The optional inline fixings series takes precedence over
// the configured historical store.
type valuationRequest struct {
	Name     string  `json:"name,omitempty"`
	Market   string  `json:"market,omitempty"`
	Currency string  `json:"currency,omitempty"`
	FXRate   float64 `json:"fx_rate,omitempty"`

	Notional     float64 `json:"notional"`
	Denomination float64 `json:"denomination"`

	Underlyings []underlyingRequest `json:"underlyings"`

	TradeDate        string   `json:"trade_date"`
	ObservationDates []string `json:"observation_dates"`
	PaymentDates     []string `json:"payment_dates"`

	StrikePct  float64 `json:"strike_pct"`
	TriggerPct float64 `json:"trigger_pct"`

	CouponRate      float64 `json:"coupon_rate"`
	CouponFrequency float64 `json:"coupon_frequency,omitempty"`
	ActDayCount     bool    `json:"act_day_count,omitempty"`

	RiskFreeRate float64 `json:"risk_free_rate"`

	Paths        int         `json:"paths,omitempty"`
	Volatilities []float64   `json:"volatilities,omitempty"`
	Correlations [][]float64 `json:"correlations,omitempty"`
	Seed         *uint64     `json:"seed,omitempty"`

	ValuationDate string                        `json:"valuation_date,omitempty"`
	Fixings       map[string]map[string]float64 `json:"fixings,omitempty"`
	UseHistory    bool                          `json:"use_history,omitempty"`
}

// toParameters converts the wire request into domain pricing parameters
func (req *valuationRequest) toParameters() (*domain.PricingParameters, error) {
	tradeDate, err := parseDate(req.TradeDate, "trade_date")
	if err != nil {
		return nil, err
	}
	observations, err := parseDates(req.ObservationDates, "observation_dates")
	if err != nil {
		return nil, err
	}
	payments, err := parseDates(req.PaymentDates, "payment_dates")
	if err != nil {
		return nil, err
	}

	underlyings := make([]domain.Underlying, 0, len(req.Underlyings))
	for _, u := range req.Underlyings {
		dividends := make([]domain.DividendPayment, 0, len(u.Dividends))
		for _, d := range u.Dividends {
			exDate, err := parseDate(d.ExDate, "ex_date")
			if err != nil {
				return nil, err
			}
			dividends = append(dividends, domain.DividendPayment{ExDate: exDate, Amount: d.Amount})
		}
		underlyings = append(underlyings, domain.Underlying{
			Ticker:      u.Ticker,
			InitialSpot: u.InitialSpot,
			CurrentSpot: u.CurrentSpot,
			Dividends:   dividends,
		})
	}

	return &domain.PricingParameters{
		Name:             req.Name,
		Market:           req.Market,
		Currency:         req.Currency,
		FXRate:           req.FXRate,
		Notional:         req.Notional,
		Denomination:     req.Denomination,
		Underlyings:      underlyings,
		TradeDate:        tradeDate,
		ObservationDates: observations,
		PaymentDates:     payments,
		StrikePct:        req.StrikePct,
		TriggerPct:       req.TriggerPct,
		CouponRate:       req.CouponRate,
		CouponFrequency:  req.CouponFrequency,
		ActDayCount:      req.ActDayCount,
		RiskFreeRate:     req.RiskFreeRate,
		Paths:            req.Paths,
		Volatilities:     req.Volatilities,
		Correlations:     req.Correlations,
		Seed:             req.Seed,
	}, nil
}

// HandleValueFCN values one fixed coupon note and stores a snapshot
func (h *Handler) HandleValueFCN(w http.ResponseWriter, r *http.Request) {
	var req valuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	params, err := req.toParameters()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	valuationDate := time.Now()
	if req.ValuationDate != "" {
		valuationDate, err = parseDate(req.ValuationDate, "valuation_date")
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var fixings lifecycle.FixingSource
	switch {
	case len(req.Fixings) > 0:
		src, err := newInlineFixings(req.Fixings)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		fixings = src
	case req.UseHistory:
		fixings = h.fixings
	}

	runID := uuid.New().String()
	log := h.log.With().Str("run_id", runID).Str("note", req.Name).Logger()

	result, err := h.valuationSvc.Value(r.Context(), params, valuationDate, fixings)
	if err != nil {
		if domain.IsConfigError(err) {
			log.Warn().Err(err).Msg("Valuation rejected")
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error().Err(err).Msg("Valuation failed")
		h.writeError(w, http.StatusInternalServerError, "calculation error")
		return
	}

	if h.snapshotRepo != nil {
		if err := h.snapshotRepo.Save(runID, result); err != nil {
			// Persistence must not fail the pricing response
			log.Error().Err(err).Msg("Failed to store valuation snapshot")
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     runID,
		"result": result,
	})
}

// HandleListSnapshots returns recent snapshot summaries
func (h *Handler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshotRepo == nil {
		h.writeError(w, http.StatusNotFound, "snapshot store not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	summaries, err := h.snapshotRepo.List(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": summaries})
}

// HandleGetSnapshot returns one stored valuation with its full payload
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshotRepo == nil {
		h.writeError(w, http.StatusNotFound, "snapshot store not configured")
		return
	}

	id := chi.URLParam(r, "id")
	result, err := h.snapshotRepo.Get(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		h.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// inlineFixings adapts a request-supplied close series to a FixingSource
type inlineFixings struct {
	closes map[string]map[int64]float64
}

func newInlineFixings(raw map[string]map[string]float64) (*inlineFixings, error) {
	src := &inlineFixings{closes: make(map[string]map[int64]float64, len(raw))}
	for ticker, series := range raw {
		byDate := make(map[int64]float64, len(series))
		for date, close := range series {
			parsed, err := time.Parse(utils.Layout, date)
			if err != nil {
				return nil, domain.NewConfigError("invalid fixing date %q for %s", date, ticker)
			}
			byDate[utils.Midnight(parsed).Unix()] = close
		}
		src.closes[ticker] = byDate
	}
	return src, nil
}

// CloseOn implements lifecycle.FixingSource
func (f *inlineFixings) CloseOn(ticker string, date time.Time) (float64, bool) {
	series, ok := f.closes[ticker]
	if !ok {
		return 0, false
	}
	close, ok := series[utils.Midnight(date).Unix()]
	return close, ok
}

// Helper functions

func parseDate(raw, field string) (time.Time, error) {
	parsed, err := time.Parse(utils.Layout, raw)
	if err != nil {
		return time.Time{}, domain.NewConfigError("invalid %s %q, expected YYYY-MM-DD", field, raw)
	}
	return parsed, nil
}

func parseDates(raw []string, field string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		parsed, err := parseDate(r, field)
		if err != nil {
			return nil, err
		}
		dates = append(dates, parsed)
	}
	return dates, nil
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
