package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"steamvault-rest-api/internal/fetch"
	"steamvault-rest-api/internal/service"
	"steamvault-rest-api/pkg/apierror"
	"steamvault-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// InventoryHandler handles inventory-related HTTP requests.
type InventoryHandler struct {
	inventoryService *service.InventoryService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
	}
}

// mapServiceError translates service/fetch errors into API errors.
func mapServiceError(err error) *apierror.Error {
	var exhausted *fetch.StrategiesExhaustedError
	switch {
	case errors.Is(err, fetch.ErrInvalidSteamID):
		return apierror.BadRequest(err.Error())
	case errors.As(err, &exhausted):
		return apierror.UpstreamUnavailable("")
	case errors.Is(err, service.ErrUnauthorized):
		return apierror.Unauthorized("")
	default:
		return apierror.InternalError("")
	}
}

// GetInventory handles GET /api/v1/inventory/{steam_id}
// Query params: refresh=1 bypasses cached tiers, format=normalized
// returns the joined item view.
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steam_id")
	if steamID == "" {
		response.Error(w, apierror.BadRequest("steam_id is required"))
		return
	}

	refresh := r.URL.Query().Get("refresh") == "1"
	normalized := r.URL.Query().Get("format") == "normalized"

	result, err := h.inventoryService.GetInventory(r.Context(), steamID, refresh, normalized)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, result)
}

// SyncSnapshot handles POST /api/v1/inventory/{steam_id}/sync
func (h *InventoryHandler) SyncSnapshot(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steam_id")
	if steamID == "" {
		response.Error(w, apierror.BadRequest("steam_id is required"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	var jsonData json.RawMessage
	if err := json.Unmarshal(body, &jsonData); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	itemCount, err := h.inventoryService.SyncSnapshot(r.Context(), steamID, body)
	if err != nil {
		switch {
		case errors.Is(err, fetch.ErrInvalidSteamID):
			response.Error(w, apierror.BadRequest(err.Error()))
		case errors.Is(err, service.ErrMalformedDocument):
			response.Error(w, apierror.BadRequest("malformed inventory document"))
		default:
			response.Error(w, apierror.InternalError("failed to store snapshot"))
		}
		return
	}

	response.OK(w, map[string]interface{}{
		"success":    true,
		"steam_id":   steamID,
		"item_count": itemCount,
		"size":       len(body),
	})
}

// GetSnapshot handles GET /api/v1/inventory/{steam_id}/snapshot
// Returns the stored snapshot regardless of TTL.
func (h *InventoryHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steam_id")
	if steamID == "" {
		response.Error(w, apierror.BadRequest("steam_id is required"))
		return
	}

	data, syncedAt, err := h.inventoryService.GetSnapshot(r.Context(), steamID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if data == nil {
		response.Error(w, apierror.NotFound("no snapshot for this steam id"))
		return
	}

	response.OK(w, map[string]interface{}{
		"steam_id":  steamID,
		"inventory": json.RawMessage(data),
		"synced_at": syncedAt,
	})
}
