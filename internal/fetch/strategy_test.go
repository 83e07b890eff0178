package fetch

import "testing"

func TestParseStrategiesOrder(t *testing.T) {
	raw := "direct=https://example.com/inv/{id};relay=https://relay.example.com/{id}/all"

	strategies, err := ParseStrategies(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(strategies))
	}
	if strategies[0].Label != "direct" || strategies[1].Label != "relay" {
		t.Fatalf("declared order not preserved: %+v", strategies)
	}
}

func TestParseStrategiesExpandsID(t *testing.T) {
	strategies, err := ParseStrategies("direct=https://example.com/inv/{id}?count=5000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url := strategies[0].URL("76561198000000000")
	want := "https://example.com/inv/76561198000000000?count=5000"
	if url != want {
		t.Fatalf("expected %q, got %q", want, url)
	}
}

func TestParseStrategiesInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no separator", "direct"},
		{"missing placeholder", "direct=https://example.com/inv"},
		{"empty label", "=https://example.com/{id}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseStrategies(tc.raw); err == nil {
				t.Fatalf("expected error for %q", tc.raw)
			}
		})
	}
}

func TestParseStrategiesSkipsBlankEntries(t *testing.T) {
	strategies, err := ParseStrategies("direct=https://example.com/{id}; ;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strategies) != 1 {
		t.Fatalf("expected 1 strategy, got %d", len(strategies))
	}
}
