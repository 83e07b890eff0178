package model

import (
	"encoding/json"
	"testing"
)

func TestNormalizeJoinsDescriptions(t *testing.T) {
	doc := &InventoryDocument{
		Assets: []Asset{
			{AssetID: "101", ClassID: "200", InstanceID: "0", Amount: "1"},
			{AssetID: "102", ClassID: "201", InstanceID: "5", Amount: "1"},
		},
		Descriptions: []Description{
			{ClassID: "200", InstanceID: "0", MarketName: "AK-47 | Redline", Name: "AK-47 | Redline", Type: "Rifle", IconURL: "icon-a"},
			{ClassID: "201", InstanceID: "5", MarketName: "Glock-18 | Fade", Name: "Glock-18 | Fade", Type: "Pistol", IconURL: "icon-b"},
		},
	}

	items := doc.Normalize("76561198000000000")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].MarketName != "AK-47 | Redline" || items[1].MarketName != "Glock-18 | Fade" {
		t.Fatalf("descriptions not joined in asset order: %+v", items)
	}
	for _, item := range items {
		if item.SteamID != "76561198000000000" {
			t.Fatalf("item missing owner tag: %+v", item)
		}
	}
}

func TestNormalizeMissingDescriptionGetsSentinel(t *testing.T) {
	doc := &InventoryDocument{
		Assets: []Asset{
			{AssetID: "101", ClassID: "200", InstanceID: "0", Amount: "1"},
			{AssetID: "102", ClassID: "999", InstanceID: "0", Amount: "2"},
		},
		Descriptions: []Description{
			{ClassID: "200", InstanceID: "0", MarketName: "AK-47 | Redline", Name: "AK-47 | Redline", Type: "Rifle"},
		},
	}

	items := doc.Normalize("76561198000000000")
	if len(items) != 2 {
		t.Fatalf("a missing description must not drop the asset; got %d items", len(items))
	}

	orphan := items[1]
	if orphan.MarketName != UnknownField || orphan.Name != UnknownField || orphan.Type != UnknownField {
		t.Fatalf("expected sentinel display fields, got %+v", orphan)
	}
	if orphan.AssetID != "102" || orphan.Amount != "2" {
		t.Fatalf("asset fields must survive the failed join: %+v", orphan)
	}
}

func TestNormalizeJoinKeyIncludesInstanceID(t *testing.T) {
	doc := &InventoryDocument{
		Assets: []Asset{{AssetID: "101", ClassID: "200", InstanceID: "7", Amount: "1"}},
		Descriptions: []Description{
			{ClassID: "200", InstanceID: "0", MarketName: "wrong instance"},
		},
	}

	items := doc.Normalize("76561198000000000")
	if items[0].MarketName != UnknownField {
		t.Fatalf("join must match on (classid, instanceid), got %+v", items[0])
	}
}

func TestAssetListPrefersAssets(t *testing.T) {
	doc := &InventoryDocument{
		Assets: []Asset{{AssetID: "1"}},
		Items:  []Asset{{AssetID: "2"}, {AssetID: "3"}},
	}
	if got := doc.AssetList(); len(got) != 1 || got[0].AssetID != "1" {
		t.Fatalf("expected assets field to win, got %+v", got)
	}

	alias := &InventoryDocument{Items: []Asset{{AssetID: "2"}}}
	if got := alias.AssetList(); len(got) != 1 || got[0].AssetID != "2" {
		t.Fatalf("expected items alias fallback, got %+v", got)
	}
}

func TestHasAssetsDistinguishesAbsentFromEmpty(t *testing.T) {
	var absent InventoryDocument
	if err := json.Unmarshal([]byte(`{"descriptions":[]}`), &absent); err != nil {
		t.Fatal(err)
	}
	if absent.HasAssets() {
		t.Fatal("document without an asset collection must not report assets")
	}

	var empty InventoryDocument
	if err := json.Unmarshal([]byte(`{"assets":[],"descriptions":[]}`), &empty); err != nil {
		t.Fatal(err)
	}
	if !empty.HasAssets() {
		t.Fatal("empty but present asset collection must count")
	}
}
