package handler

import (
	"net/http"
	"runtime"
	"time"

	"steamvault-rest-api/internal/cache"
	"steamvault-rest-api/internal/repository"
	"steamvault-rest-api/pkg/apierror"
	"steamvault-rest-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	redisBuffer   *cache.RedisSnapshotBuffer
	snapshotStore repository.SnapshotStore
	dbType        string // Store type: sqlite or postgres
	loginKey      string
	startTime     time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	redisBuffer *cache.RedisSnapshotBuffer,
	snapshotStore repository.SnapshotStore,
	dbType string,
	loginKey string,
) *AdminHandler {
	return &AdminHandler{
		redisBuffer:   redisBuffer,
		snapshotStore: snapshotStore,
		dbType:        dbType,
		loginKey:      loginKey,
		startTime:     time.Now(),
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

	// Redis buffer stats
	if h.redisBuffer != nil {
		count, err := h.redisBuffer.Count(ctx)
		if err == nil {
			stats["redis_buffer"] = map[string]interface{}{
				"pending_snapshots": count,
				"status":            "connected",
			}
		} else {
			stats["redis_buffer"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["redis_buffer"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Snapshot store stats
	if h.snapshotStore != nil {
		storeStats, err := h.snapshotStore.GetStats(ctx)
		if err == nil {
			storeStats["status"] = "connected"
			stats["store"] = storeStats
		} else {
			stats["store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["store"] = map[string]interface{}{
			"status": "not_configured",
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

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// VerifyLogin handles POST /api/v1/admin/login
// Checks the X-Login-Key header against the configured admin key.
func (h *AdminHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	if h.loginKey == "" {
		response.Error(w, apierror.ServiceUnavailable("admin login not configured"))
		return
	}

	if r.Header.Get("X-Login-Key") != h.loginKey {
		response.Error(w, apierror.Unauthorized("invalid login key"))
		return
	}

	response.OK(w, map[string]bool{"valid": true})
}
