package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/quantnote/internal/database"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	historyDB   *database.DB
	snapshotDB  *database.DB
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, historyDB, snapshotDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		historyDB:   historyDB,
		snapshotDB:  snapshotDB,
	}
}

// HandleHealth is a lightweight liveness check that also pings the databases
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	databases := map[string]string{}

	for name, db := range map[string]*database.DB{
		"history":   h.historyDB,
		"snapshots": h.snapshotDB,
	} {
		if db == nil {
			databases[name] = "not configured"
			continue
		}
		if err := db.HealthCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Database health check failed")
			databases[name] = "unreachable"
			status = "degraded"
		} else {
			databases[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"uptime":    time.Since(h.startupTime).String(),
		"databases": databases,
	})
}

// HandleSystemStatus returns process-level resource usage
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuAvg, ramUsed := h.resourceUsage()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"uptime":        time.Since(h.startupTime).String(),
		"cpu_percent":   cpuAvg,
		"ram_percent":   ramUsed,
		"goroutines":    runtime.NumGoroutine(),
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
	})
}

// resourceUsage collects host CPU and memory usage via gopsutil
func (h *SystemHandlers) resourceUsage() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
