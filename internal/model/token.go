package model

import "time"

// TokenData contains the data stored with a session token.
type TokenData struct {
	APIKeyID  int64     `json:"api_key_id"`
	Owner     string    `json:"owner"`
	SteamID   string    `json:"steam_id"`
	HWID      string    `json:"hwid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// APIKeyValidation contains the result of key+hwid validation.
type APIKeyValidation struct {
	APIKeyID int64
	Owner    string
	SteamID  string
	HWID     string
	Status   string
}
