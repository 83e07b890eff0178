package model

import (
	"encoding/json"
	"time"
)

// UnknownField is the sentinel used when an asset has no matching description.
const UnknownField = "unknown"

// Asset is a single item instance in an inventory document.
// Immutable once fetched.
type Asset struct {
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
}

// Description carries the display fields shared by all assets with the
// same (classid, instanceid) pair.
type Description struct {
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	MarketName string `json:"market_name"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	IconURL    string `json:"icon_url"`
}

// InventoryDocument is the raw structural result from the upstream
// inventory endpoint: an ordered asset list plus a description list
// joined by (classid, instanceid).
type InventoryDocument struct {
	Assets       []Asset       `json:"assets"`
	Items        []Asset       `json:"items,omitempty"` // alias used by some relays
	Descriptions []Description `json:"descriptions"`
	TotalCount   int           `json:"total_inventory_count,omitempty"`
}

// AssetList returns the document's asset sequence under whichever of its
// accepted field names the upstream used.
func (d *InventoryDocument) AssetList() []Asset {
	if len(d.Assets) > 0 {
		return d.Assets
	}
	return d.Items
}

// HasAssets reports whether the document carries the expected top-level
// collection under any of its accepted names. A document with an empty
// but present list still counts; decoding leaves both nil when absent.
func (d *InventoryDocument) HasAssets() bool {
	return d.Assets != nil || d.Items != nil
}

// NormalizedItem is the denormalized join of one asset with its
// description, tagged with the owning snapshot's account id.
// Never mutated after creation; superseded by later snapshots.
type NormalizedItem struct {
	SteamID    string `json:"steam_id"`
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
	MarketName string `json:"market_name"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	IconURL    string `json:"icon_url"`
}

// Normalize joins each asset against its description. Assets without a
// matching description get sentinel display fields, not an error.
// Output order is input order; length equals the asset count.
func (d *InventoryDocument) Normalize(steamID string) []NormalizedItem {
	assets := d.AssetList()

	type joinKey struct{ classID, instanceID string }
	descs := make(map[joinKey]*Description, len(d.Descriptions))
	for i := range d.Descriptions {
		desc := &d.Descriptions[i]
		descs[joinKey{desc.ClassID, desc.InstanceID}] = desc
	}

	items := make([]NormalizedItem, 0, len(assets))
	for _, a := range assets {
		item := NormalizedItem{
			SteamID:    steamID,
			AssetID:    a.AssetID,
			ClassID:    a.ClassID,
			InstanceID: a.InstanceID,
			Amount:     a.Amount,
		}
		if desc, ok := descs[joinKey{a.ClassID, a.InstanceID}]; ok {
			item.MarketName = desc.MarketName
			item.Name = desc.Name
			item.Type = desc.Type
			item.IconURL = desc.IconURL
		} else {
			item.MarketName = UnknownField
			item.Name = UnknownField
			item.Type = UnknownField
		}
		items = append(items, item)
	}
	return items
}

// Snapshot is one fetched-and-stored inventory result for one account.
// A deployment keeps only the latest per steam_id (primary-key upsert).
type Snapshot struct {
	ID        int64           `json:"id"`
	SteamID   string          `json:"steam_id"`
	ItemCount int             `json:"item_count"`
	RawJSON   json.RawMessage `json:"raw_json"`
	SyncedAt  time.Time       `json:"synced_at"`
}

// SnapshotSummary is a leaderboard row.
type SnapshotSummary struct {
	SteamID   string    `json:"steam_id"`
	ItemCount int       `json:"item_count"`
	SyncedAt  time.Time `json:"synced_at"`
}

// SnapshotWrite is a pending snapshot write for batch operations.
type SnapshotWrite struct {
	SteamID   string
	ItemCount int
	RawJSON   []byte
	SyncedAt  time.Time
}

// BufferedSnapshot is a snapshot waiting in the write-behind buffer.
type BufferedSnapshot struct {
	SteamID   string    `json:"steam_id"`
	ItemCount int       `json:"item_count"`
	RawJSON   []byte    `json:"raw_json"`
	UpdatedAt time.Time `json:"updated_at"`
}
