package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/rmaragno/crivo/internal/database"
)

// SystemHandlers handles system-wide monitoring endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	historyDB   *database.DB
	startupTime time.Time
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(log zerolog.Logger, dataDir string, historyDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		historyDB:   historyDB,
		startupTime: time.Now(),
	}
}

// Health handles GET /api/system/health. It reports process uptime, host
// resource usage, and the history database's health and size.
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
		"data_dir":       h.dataDir,
	}

	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		resp["cpu_percent"] = percent[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp["memory"] = map[string]any{
			"total_bytes": vm.Total,
			"used_bytes":  vm.Used,
			"percent":     vm.UsedPercent,
		}
	}

	if h.historyDB != nil {
		db := map[string]any{"name": h.historyDB.Name()}
		if err := h.historyDB.QuickCheck(r.Context()); err != nil {
			resp["status"] = "degraded"
			db["healthy"] = false
			db["error"] = err.Error()
		} else {
			db["healthy"] = true
		}
		if stats, err := h.historyDB.GetStats(); err == nil {
			db["size_bytes"] = stats.SizeBytes
			db["wal_bytes"] = stats.WALSizeBytes
		}
		resp["history_db"] = db
	}

	status := http.StatusOK
	if resp["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
