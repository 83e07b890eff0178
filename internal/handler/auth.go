package handler

import (
	"encoding/json"
	"net/http"

	"steamvault-rest-api/internal/model"
	"steamvault-rest-api/internal/repository"
	"steamvault-rest-api/internal/service"
	"steamvault-rest-api/pkg/apierror"
	"steamvault-rest-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	tokenService *service.TokenService
	apiKeyRepo   repository.APIKeyRepository
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, apiKeyRepo repository.APIKeyRepository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		apiKeyRepo:   apiKeyRepo,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	Key     string `json:"key"`
	HWID    string `json:"hwid"`
	SteamID string `json:"steam_id"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /api/v1/auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Key == "" {
		response.Error(w, apierror.BadRequest("key is required"))
		return
	}
	if req.SteamID == "" {
		response.Error(w, apierror.BadRequest("steam_id is required"))
		return
	}

	validation, err := h.apiKeyRepo.ValidateKeyAndHWID(r.Context(), req.Key, req.HWID, req.SteamID)
	if err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	tokenData := model.TokenData{
		APIKeyID: validation.APIKeyID,
		Owner:    validation.Owner,
		SteamID:  validation.SteamID,
		HWID:     validation.HWID,
	}

	token, err := h.tokenService.GenerateToken(r.Context(), tokenData)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: 3600,
	})
}

// RevokeToken handles POST /api/v1/auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": 3600,
	})
}
