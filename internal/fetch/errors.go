package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSteamID is returned for identifiers that do not match the
// 17-digit SteamID64 format. Rejected before any network I/O.
var ErrInvalidSteamID = errors.New("invalid steam id: must be a 17-digit numeric identifier")

// StrategyFailure records why one transport strategy was abandoned.
type StrategyFailure struct {
	Label  string
	Reason string
}

func (f StrategyFailure) String() string {
	return f.Label + ": " + f.Reason
}

// StrategiesExhaustedError is the terminal error when every strategy
// failed. It aggregates the per-strategy reasons for operator logs; the
// HTTP layer surfaces only the aggregate.
type StrategiesExhaustedError struct {
	Failures []StrategyFailure
}

func (e *StrategiesExhaustedError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.String()
	}
	return fmt.Sprintf("all %d strategies exhausted: %s", len(e.Failures), strings.Join(reasons, "; "))
}
