package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"steamvault-rest-api/internal/model"
)

// MySQLAPIKeyRepository implements APIKeyRepository using MySQL.
type MySQLAPIKeyRepository struct {
	db *sql.DB
}

// NewMySQLAPIKeyRepository creates a new MySQL api key repository.
func NewMySQLAPIKeyRepository(db *sql.DB) *MySQLAPIKeyRepository {
	return &MySQLAPIKeyRepository{db: db}
}

// GetAPIKeyBySteamID finds the api key account linked to a steam id.
func (r *MySQLAPIKeyRepository) GetAPIKeyBySteamID(ctx context.Context, steamID string) (int64, error) {
	query := `SELECT id FROM api_keys WHERE steam_id = ? AND is_active = 1 LIMIT 1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, steamID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("api key not found for steam id: %s", steamID)
		}
		return 0, fmt.Errorf("failed to get api key: %w", err)
	}

	return id, nil
}

// ValidateKeyAndHWID validates a key+hwid+steam_id combination for token
// generation. Returns account details if valid, error otherwise.
func (r *MySQLAPIKeyRepository) ValidateKeyAndHWID(ctx context.Context, key, hwid, steamID string) (*model.APIKeyValidation, error) {
	log.Printf("[APIKeyRepository] Validating key for steam_id=%s", steamID)

	query := `
		SELECT
			id,
			owner,
			steam_id,
			hwid,
			status
		FROM api_keys
		WHERE ` + "`key`" + ` = ?
		  AND steam_id = ?
		  AND is_active = 1
		  AND LOWER(status) = 'active'
		LIMIT 1`

	var result model.APIKeyValidation
	err := r.db.QueryRowContext(ctx, query, key, steamID).Scan(
		&result.APIKeyID,
		&result.Owner,
		&result.SteamID,
		&result.HWID,
		&result.Status,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid key or account not found")
		}
		return nil, fmt.Errorf("failed to validate key: %w", err)
	}

	// Validate HWID if already set (not empty)
	if result.HWID != "" && result.HWID != hwid {
		return nil, fmt.Errorf("hwid mismatch")
	}

	// Update HWID if not set yet
	if result.HWID == "" && hwid != "" {
		updateQuery := `UPDATE api_keys SET hwid = ? WHERE id = ?`
		_, err = r.db.ExecContext(ctx, updateQuery, hwid, result.APIKeyID)
		if err != nil {
			log.Printf("[APIKeyRepository] Failed to update HWID: %v", err)
		}
		result.HWID = hwid
	}

	return &result, nil
}

// Ensure MySQLAPIKeyRepository implements APIKeyRepository
var _ APIKeyRepository = (*MySQLAPIKeyRepository)(nil)
