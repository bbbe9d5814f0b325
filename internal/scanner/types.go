package scanner

import (
	"time"

	"github.com/fenilsonani/diskwise/internal/classify"
	"github.com/fenilsonani/diskwise/internal/rules"
)

// DefaultLevel is the advisory level every item starts with until the
// advisor has run.
const DefaultLevel = "L3"

// Item is one cleanup candidate found during a scan. The scan-derived fields
// are fixed at emission; the advisory fields are filled in by the local
// advisor and may later be overwritten by reconciliation. Items are replaced
// wholesale by the next scan.
type Item struct {
	Path       string            `json:"path"`
	SizeBytes  int64             `json:"size_bytes"`
	ModTime    time.Time         `json:"mtime"`
	CreateTime time.Time         `json:"ctime"`
	Category   classify.Category `json:"category"`
	RuleName   string            `json:"rule_name"`
	RuleRisk   rules.Risk        `json:"rule_risk"`

	IsRecent         bool `json:"is_recent"`
	IsForbidden      bool `json:"is_forbidden"`
	IsSuggestionOnly bool `json:"is_suggestion_only"`

	Level                string  `json:"ai_level"`
	Reason               string  `json:"ai_reason"`
	RecommendedAction    string  `json:"recommended_action"`
	RiskNotes            string  `json:"ai_risk_notes"`
	Confidence           float64 `json:"ai_confidence"`
	RequiresConfirmation bool    `json:"ai_requires_confirmation"`
}

// Result is the immutable snapshot a scan hands to downstream stages.
// Skipped holds per-path failures that did not abort the scan.
type Result struct {
	Items    []Item        `json:"items"`
	Skipped  []string      `json:"skipped"`
	Duration time.Duration `json:"duration"`
	Stopped  bool          `json:"stopped"`
}

// TotalSize sums the byte sizes of all items.
func (r *Result) TotalSize() int64 {
	var total int64
	for i := range r.Items {
		total += r.Items[i].SizeBytes
	}
	return total
}
