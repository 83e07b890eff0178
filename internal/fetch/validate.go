package fetch

import (
	"encoding/json"
	"fmt"
	"strings"

	"steamvault-rest-api/internal/model"
)

// VerdictKind classifies a raw upstream response.
type VerdictKind int

const (
	// VerdictSuccess means the body parsed into a usable document.
	VerdictSuccess VerdictKind = iota
	// VerdictSoftFailure means the response is syntactically receivable
	// but semantically unusable (blocked page, empty body, wrong shape).
	// The fetcher advances to the next strategy.
	VerdictSoftFailure
	// VerdictHardFailure means the strategy returned a non-retryable bad
	// status. On the last strategy this terminates the fetch.
	VerdictHardFailure
)

// Verdict is the validator's three-way result.
type Verdict struct {
	Kind     VerdictKind
	Reason   string
	Document *model.InventoryDocument
}

func success(doc *model.InventoryDocument) Verdict {
	return Verdict{Kind: VerdictSuccess, Document: doc}
}

func softFailure(reason string) Verdict {
	return Verdict{Kind: VerdictSoftFailure, Reason: reason}
}

func hardFailure(reason string) Verdict {
	return Verdict{Kind: VerdictHardFailure, Reason: reason}
}

// Classify applies the validation rules in order: bad status, blocked or
// empty body, malformed JSON, unexpected shape, success. Retryable
// statuses never reach here; the fetcher retries them first.
func Classify(statusCode int, body []byte) Verdict {
	if statusCode < 200 || statusCode > 299 {
		return hardFailure(fmt.Sprintf("bad status %d", statusCode))
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return softFailure("blocked or empty")
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") || strings.Contains(lower, "<title>") {
		return softFailure("blocked or empty")
	}

	var doc model.InventoryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return softFailure("malformed")
	}

	if !doc.HasAssets() {
		return softFailure("unexpected shape")
	}

	return success(&doc)
}
