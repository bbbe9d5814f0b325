package advisor

import "strings"

func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}

func anyCJK(list []string) bool {
	for _, s := range list {
		if containsCJK(s) {
			return true
		}
	}
	return false
}

// preferCN keeps current unless the remote text carries CJK characters. The
// advisory output is Chinese, so a latin-only remote field usually means the
// model ignored the language constraint.
func preferCN(current, remote string) string {
	if containsCJK(remote) {
		return remote
	}
	return current
}

func preferCNList(current, remote []string) []string {
	if len(remote) > 0 && anyCJK(remote) {
		return remote
	}
	return current
}

func reportHasCJK(r Report) bool {
	if containsCJK(r.Overview) {
		return true
	}
	for _, list := range [][]string{
		r.Findings.QuickWins, r.Findings.MediumRisks, r.Findings.DoNotTouch,
		r.Recommendations.CleanupStrategy, r.Recommendations.NonDeleteOptions,
	} {
		if anyCJK(list) {
			return true
		}
	}
	return false
}

func reportEmpty(r Report) bool {
	return r.Overview == "" &&
		len(r.Findings.QuickWins) == 0 && len(r.Findings.MediumRisks) == 0 &&
		len(r.Findings.DoNotTouch) == 0 && len(r.Recommendations.CleanupStrategy) == 0 &&
		len(r.Recommendations.NonDeleteOptions) == 0
}

// Merge reconciles a remote advisory response into the local result. Remote
// records are matched to local items by item_id first, then by
// case-insensitive target path; unmatched remote records are dropped, so the
// remote can never introduce items the scan did not produce. After applying
// per-item fields the level groups and summary are recomputed from the merged
// items. The local result is not modified.
func Merge(local *Result, remote *RemoteResult) *Result {
	if local == nil {
		return nil
	}
	merged := *local
	merged.Advice.Items = append([]ItemAdvice(nil), local.Advice.Items...)
	if remote == nil {
		return &merged
	}

	byItemID := make(map[int]int, len(merged.Advice.Items))
	byPath := make(map[string]int, len(merged.Advice.Items))
	for idx, item := range merged.Advice.Items {
		byItemID[item.ItemID] = idx
		if item.Target != "" {
			byPath[strings.ToLower(item.Target)] = idx
		}
	}

	applied := 0
	for _, raw := range remote.Advice.Items {
		idx := -1
		if raw.ItemID != nil {
			if i, ok := byItemID[*raw.ItemID]; ok {
				idx = i
			}
		}
		if idx < 0 && raw.Target != "" {
			if i, ok := byPath[strings.ToLower(raw.Target)]; ok {
				idx = i
			}
		}
		if idx < 0 {
			continue
		}

		current := &merged.Advice.Items[idx]
		level := strings.ToUpper(raw.Level)
		if !ValidLevel(level) {
			level = current.Level
		}
		current.Level = level
		if raw.Confidence != nil {
			current.Confidence = round2(*raw.Confidence)
		}
		current.Reason = preferCN(current.Reason, raw.Reason)
		current.RiskNotes = preferCN(current.RiskNotes, raw.RiskNotes)
		current.RecommendedAction = preferCN(current.RecommendedAction, raw.RecommendedAction)
		if raw.RequiresConfirmation != nil {
			current.RequiresConfirmation = *raw.RequiresConfirmation
		} else {
			current.RequiresConfirmation = level == "L4" || level == "L5"
		}
		if raw.EstimatedSavingsBytes != nil {
			current.EstimatedSavingsBytes = *raw.EstimatedSavingsBytes
		}
		applied++
	}

	diagnosis := merged.Advice.Diagnosis
	diagnosis.Summary = preferCN(diagnosis.Summary, remote.Advice.Diagnosis.Summary)
	diagnosis.Highlights = preferCNList(diagnosis.Highlights, remote.Advice.Diagnosis.Highlights)
	diagnosis.Risks = preferCNList(diagnosis.Risks, remote.Advice.Diagnosis.Risks)
	diagnosis.Actions = preferCNList(diagnosis.Actions, remote.Advice.Diagnosis.Actions)
	merged.Advice.Diagnosis = diagnosis

	if !reportEmpty(remote.Report) && reportHasCJK(remote.Report) {
		merged.Report = remote.Report
	}

	merged.Advice.LevelGroups = buildLevelGroups(merged.Advice.Items)
	counts, savings := aggregate(merged.Advice.Items)
	merged.Advice.Summary = Summary{
		EstimatedSavingsBytes: savings,
		LevelCounts:           counts,
		KeyRisks:              merged.Advice.Diagnosis.Risks,
		RemoteAppliedItems:    applied,
	}
	return &merged
}
