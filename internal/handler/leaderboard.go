package handler

import (
	"net/http"
	"strconv"

	"steamvault-rest-api/internal/service"
	"steamvault-rest-api/pkg/apierror"
	"steamvault-rest-api/pkg/response"
)

// LeaderboardHandler serves ordered snapshot summaries.
type LeaderboardHandler struct {
	inventoryService *service.InventoryService
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(inventoryService *service.InventoryService) *LeaderboardHandler {
	return &LeaderboardHandler{
		inventoryService: inventoryService,
	}
}

// GetLeaderboard handles GET /api/v1/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	summaries, total, err := h.inventoryService.Leaderboard(r.Context(), limit, offset)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to fetch leaderboard"))
		return
	}

	response.JSONWithMeta(w, http.StatusOK, summaries, page, limit, total)
}
