package advisor

// Levels of the five-tier caution scale, from safe-to-auto-clean (L1) to
// manual-review-only (L5).
var Levels = []string{"L1", "L2", "L3", "L4", "L5"}

// levelOrder maps a level to its numeric rank.
var levelOrder = map[string]int{"L1": 1, "L2": 2, "L3": 3, "L4": 4, "L5": 5}

// ValidLevel reports whether s is one of the five levels.
func ValidLevel(s string) bool {
	_, ok := levelOrder[s]
	return ok
}

// ItemAdvice is the advisory record for one scanned item, keyed by the
// item's positional id and its path.
type ItemAdvice struct {
	ItemID                int     `json:"item_id"`
	Target                string  `json:"target"`
	FileName              string  `json:"file_name"`
	Level                 string  `json:"level"`
	Confidence            float64 `json:"confidence"`
	Reason                string  `json:"reason"`
	RiskNotes             string  `json:"risk_notes"`
	RecommendedAction     string  `json:"recommended_action"`
	RequiresConfirmation  bool    `json:"requires_confirmation"`
	EstimatedSavingsBytes int64   `json:"estimated_savings_bytes"`
}

// Diagnosis is the human-facing assessment of a scan.
type Diagnosis struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Risks      []string `json:"risks"`
	Actions    []string `json:"actions"`
}

// Summary aggregates the per-item records.
type Summary struct {
	EstimatedSavingsBytes int64          `json:"estimated_savings_bytes"`
	LevelCounts           map[string]int `json:"level_counts"`
	KeyRisks              []string       `json:"key_risks"`
	RemoteAppliedItems    int            `json:"remote_applied_items,omitempty"`
}

// Advice is the full advisory document for one scan. The level grouping is
// always re-derived from Items and never diverges from it.
type Advice struct {
	Summary     Summary                 `json:"summary"`
	Diagnosis   Diagnosis               `json:"diagnosis"`
	LevelGroups map[string][]ItemAdvice `json:"level_groups"`
	Items       []ItemAdvice            `json:"items"`
}

// ReportFindings groups report observations by urgency.
type ReportFindings struct {
	QuickWins   []string `json:"quick_wins"`
	MediumRisks []string `json:"medium_risks"`
	DoNotTouch  []string `json:"do_not_touch"`
}

// ReportRecommendations holds the staged cleanup guidance.
type ReportRecommendations struct {
	CleanupStrategy  []string `json:"cleanup_strategy"`
	NonDeleteOptions []string `json:"non_delete_options"`
}

// Report is the long-form advisory report document.
type Report struct {
	Overview        string                `json:"overview"`
	Findings        ReportFindings        `json:"findings"`
	Recommendations ReportRecommendations `json:"recommendations"`
}

// Result pairs the advice with its report.
type Result struct {
	Advice Advice `json:"advice"`
	Report Report `json:"report"`
}

// RemoteItem is one per-item record as the advisory service returned it,
// after schema normalization. Pointer fields distinguish absent from zero so
// reconciliation only overwrites what the remote actually provided.
type RemoteItem struct {
	ItemID                *int     `json:"item_id"`
	Target                string   `json:"target"`
	FileName              string   `json:"file_name"`
	Level                 string   `json:"level"`
	Confidence            *float64 `json:"confidence"`
	Reason                string   `json:"reason"`
	RiskNotes             string   `json:"risk_notes"`
	RecommendedAction     string   `json:"recommended_action"`
	RequiresConfirmation  *bool    `json:"requires_confirmation"`
	EstimatedSavingsBytes *int64   `json:"estimated_savings_bytes"`
}

// RemoteAdvice is the normalized advice block of a remote response.
type RemoteAdvice struct {
	Diagnosis Diagnosis    `json:"diagnosis"`
	Items     []RemoteItem `json:"items"`
}

// RemoteResult is a schema-normalized advisory response.
type RemoteResult struct {
	Advice RemoteAdvice `json:"advice"`
	Report Report       `json:"report"`
}
