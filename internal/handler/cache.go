package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"steamvault-rest-api/internal/service"
	"steamvault-rest-api/pkg/apierror"
	"steamvault-rest-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CacheHandler handles scalar cache HTTP requests.
type CacheHandler struct {
	inventoryService *service.InventoryService
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(inventoryService *service.InventoryService) *CacheHandler {
	return &CacheHandler{
		inventoryService: inventoryService,
	}
}

// GetValue handles GET /api/v1/cache/{key}
func (h *CacheHandler) GetValue(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		response.Error(w, apierror.BadRequest("key is required"))
		return
	}

	entry, err := h.inventoryService.GetCachedValue(r.Context(), key)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to read cache"))
		return
	}

	if entry == nil {
		response.OK(w, map[string]interface{}{"cached": false})
		return
	}

	response.OK(w, map[string]interface{}{
		"cached":       true,
		"value":        string(entry.Value),
		"last_updated": entry.LastUpdated,
	})
}

// PutValue handles PUT /api/v1/cache/{key}
func (h *CacheHandler) PutValue(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		response.Error(w, apierror.BadRequest("key is required"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	if len(body) == 0 {
		response.Error(w, apierror.BadRequest("value is required"))
		return
	}

	if err := h.inventoryService.PutCachedValue(r.Context(), key, body); err != nil {
		response.Error(w, apierror.InternalError("failed to write cache"))
		return
	}

	response.OK(w, map[string]interface{}{
		"success": true,
		"key":     key,
	})
}

// ClearAll handles DELETE /api/v1/cache
// Requires the clear credential as a bearer token.
func (h *CacheHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	credential := r.Header.Get("Authorization")
	credential = strings.TrimPrefix(credential, "Bearer ")

	deleted, err := h.inventoryService.ClearCache(r.Context(), credential)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			response.Error(w, apierror.Unauthorized("invalid cache clear credential"))
			return
		}
		response.Error(w, apierror.InternalError("failed to clear cache"))
		return
	}

	response.OK(w, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	})
}
