package handler

import (
	"net/http"
	"runtime"
	"time"

	"isuclicker-api/internal/game"
	"isuclicker-api/pkg/apierror"
	"isuclicker-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	svc       *game.Service
	dbType    string // memory, sqlite, mysql or postgres
	cacheType string // memory or redis
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc *game.Service, dbType, cacheType string) *AdminHandler {
	return &AdminHandler{
		svc:       svc,
		dbType:    dbType,
		cacheType: cacheType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType
	stats["cache_type"] = h.cacheType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	// Game stats
	gameStats, err := h.svc.Stats(ctx)
	if err == nil {
		stats["game"] = gameStats
	} else {
		stats["game"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetRoomStatus handles GET /api/v1/admin/rooms/{room_name}/status
func (h *AdminHandler) GetRoomStatus(w http.ResponseWriter, r *http.Request) {
	room := roomParam(r)
	status, err := h.svc.Status(r.Context(), room)
	if err != nil {
		response.Error(w, apierror.InternalError(err.Error()))
		return
	}
	response.OK(w, status)
}
