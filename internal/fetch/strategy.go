package fetch

import (
	"fmt"
	"strings"
)

// Strategy is one named way of reaching the upstream inventory resource,
// either the direct endpoint or a relay mirror.
type Strategy struct {
	Label       string
	URLTemplate string
}

// URL expands the strategy's template for the given account id.
func (s Strategy) URL(steamID string) string {
	return strings.ReplaceAll(s.URLTemplate, "{id}", steamID)
}

// ParseStrategies parses a ";"-separated list of label=url-template
// entries into an ordered strategy list. Declared order is attempt order.
func ParseStrategies(raw string) ([]Strategy, error) {
	var strategies []Strategy
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		label, tmpl, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid strategy entry %q: want label=url-template", entry)
		}
		label = strings.TrimSpace(label)
		tmpl = strings.TrimSpace(tmpl)
		if label == "" || tmpl == "" {
			return nil, fmt.Errorf("invalid strategy entry %q: empty label or template", entry)
		}
		if !strings.Contains(tmpl, "{id}") {
			return nil, fmt.Errorf("strategy %q template is missing the {id} placeholder", label)
		}

		strategies = append(strategies, Strategy{Label: label, URLTemplate: tmpl})
	}

	if len(strategies) == 0 {
		return nil, fmt.Errorf("no fetch strategies configured")
	}
	return strategies, nil
}
