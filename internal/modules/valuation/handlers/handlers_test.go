package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantnote/internal/domain"
	"github.com/aristath/quantnote/internal/modules/lifecycle"
	"github.com/aristath/quantnote/internal/modules/snapshots"
	"github.com/aristath/quantnote/internal/modules/valuation"

	_ "modernc.org/sqlite"
)

func setupTestHandler(t *testing.T) (*Handler, *snapshots.Repository) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := snapshots.NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.Migrate())

	log := zerolog.Nop()
	svc := valuation.NewService(lifecycle.NewClassifier(log), 500, 2, log)
	return NewHandler(svc, nil, repo, log), repo
}

func setupTestRouter(t *testing.T) (chi.Router, *snapshots.Repository) {
	h, repo := setupTestHandler(t)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, repo
}

func sampleRequest() map[string]interface{} {
	return map[string]interface{}{
		"name":         "TEST-FCN",
		"denomination": 1000,
		"underlyings": []map[string]interface{}{
			{"ticker": "AAA", "initial_spot": 100},
			{"ticker": "BBB", "initial_spot": 50},
		},
		"trade_date":        "2025-01-15",
		"observation_dates": []string{"2025-04-15", "2025-07-15", "2025-10-15"},
		"payment_dates":     []string{"2025-04-17", "2025-07-17", "2025-10-17"},
		"strike_pct":        0.8,
		"trigger_pct":       1.0,
		"coupon_rate":       0.12,
		"coupon_frequency":  4,
		"risk_free_rate":    0.03,
		"paths":             200,
		"seed":              42,
		"valuation_date":    "2025-02-01",
	}
}

func postValuation(t *testing.T, r chi.Router, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/fcn", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleValueFCN_Success(t *testing.T) {
	r, repo := setupTestRouter(t)

	rec := postValuation(t, r, sampleRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID     string                 `json:"id"`
		Result domain.ValuationResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, domain.StateActive, resp.Result.State)
	assert.Equal(t, 200, resp.Result.Paths)
	assert.Equal(t, uint64(42), resp.Result.Seed)
	assert.InDelta(t, 1.0,
		resp.Result.EarlyRedemptionProb+resp.Result.TerminalAutocallProb+resp.Result.KnockInProb,
		1e-9)

	// The run was snapshotted under the returned id
	stored, err := repo.Get(resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, resp.Result.DirtyPrice, stored.DirtyPrice)
}

func TestHandleValueFCN_InvalidBody(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/fcn", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleValueFCN_InvalidDate(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := sampleRequest()
	body["trade_date"] = "15/01/2025"

	rec := postValuation(t, r, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleValueFCN_RejectedParameters(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := sampleRequest()
	body["strike_pct"] = 1.5

	rec := postValuation(t, r, body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "strike_pct")
}

func TestHandleValueFCN_InlineFixings(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := sampleRequest()
	body["valuation_date"] = "2025-06-01"
	body["fixings"] = map[string]map[string]float64{
		"AAA": {"2025-04-15": 105},
		"BBB": {"2025-04-15": 52},
	}

	rec := postValuation(t, r, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result domain.ValuationResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StateAutocalled, resp.Result.State)
}

func TestHandleValueFCN_BadFixingDate(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := sampleRequest()
	body["fixings"] = map[string]map[string]float64{
		"AAA": {"April 15": 105},
	}

	rec := postValuation(t, r, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListSnapshots(t *testing.T) {
	r, _ := setupTestRouter(t)

	rec := postValuation(t, r, sampleRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/snapshots", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Snapshots []snapshots.Summary `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Snapshots, 1)
	assert.Equal(t, "TEST-FCN", resp.Snapshots[0].NoteName)
	assert.Equal(t, "2025-02-01", resp.Snapshots[0].ValuationDate)
}

func TestHandleListSnapshots_InvalidLimit(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/snapshots?limit=zero", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetSnapshot(t *testing.T) {
	r, _ := setupTestRouter(t)

	rec := postValuation(t, r, sampleRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/snapshots/"+created.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.ValuationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "TEST-FCN", result.Name)
}

func TestHandleGetSnapshot_NotFound(t *testing.T) {
	r, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/snapshots/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
