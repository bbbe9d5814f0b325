package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fenilsonani/diskwise/internal/advisor"
)

// ExtractJSON pulls the JSON document out of a model reply. Replies arrive
// wrapped in markdown code fences or surrounded by prose often enough that
// taking the content verbatim is the exception.
func ExtractJSON(content string) string {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) >= 3 {
			text = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last != -1 && first < last {
		return text[first : last+1]
	}
	return text
}

// rawEnvelope is the loosest reading of a reply: just the two top-level
// blocks, each kept raw until its shape is known.
type rawEnvelope struct {
	Advice json.RawMessage `json:"advice"`
	Report json.RawMessage `json:"report"`
}

type rawAdvice struct {
	Diagnosis json.RawMessage      `json:"diagnosis"`
	Summary   json.RawMessage      `json:"summary"`
	Items     []advisor.RemoteItem `json:"items"`
}

// legacySummary is the pre-diagnosis response shape some deployments still
// return: a summary block with text/highlights/key_risks.
type legacySummary struct {
	Text       string   `json:"text"`
	Highlights []string `json:"highlights"`
	KeyRisks   []string `json:"key_risks"`
}

// ParseResult decodes a model reply into the normalized remote schema.
// Legacy summary blocks are folded into the diagnosis, item levels are forced
// into L1-L5 with L3 as the fallback, and a missing requires_confirmation is
// defaulted from the level.
func ParseResult(data []byte) (*advisor.RemoteResult, error) {
	var envelope rawEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode advisory response: %w", err)
	}

	result := &advisor.RemoteResult{}

	if len(envelope.Advice) > 0 {
		var advice rawAdvice
		if err := json.Unmarshal(envelope.Advice, &advice); err != nil {
			return nil, fmt.Errorf("decode advice block: %w", err)
		}
		result.Advice.Diagnosis = parseDiagnosis(advice)
		result.Advice.Items = normalizeItems(advice.Items)
	}

	if len(envelope.Report) > 0 {
		var report advisor.Report
		if err := json.Unmarshal(envelope.Report, &report); err == nil {
			result.Report = report
		} else {
			// Some models return the report as a bare string.
			var overview string
			if err := json.Unmarshal(envelope.Report, &overview); err == nil {
				result.Report = advisor.Report{Overview: overview}
			}
		}
	}

	return result, nil
}

func parseDiagnosis(advice rawAdvice) advisor.Diagnosis {
	if len(advice.Diagnosis) > 0 {
		var diagnosis advisor.Diagnosis
		if err := json.Unmarshal(advice.Diagnosis, &diagnosis); err == nil {
			return diagnosis
		}
	}
	if len(advice.Summary) > 0 {
		var legacy legacySummary
		if err := json.Unmarshal(advice.Summary, &legacy); err == nil {
			return advisor.Diagnosis{
				Summary:    legacy.Text,
				Highlights: legacy.Highlights,
				Risks:      legacy.KeyRisks,
			}
		}
	}
	return advisor.Diagnosis{}
}

func normalizeItems(items []advisor.RemoteItem) []advisor.RemoteItem {
	normalized := make([]advisor.RemoteItem, 0, len(items))
	for _, item := range items {
		level := strings.ToUpper(strings.TrimSpace(item.Level))
		if !advisor.ValidLevel(level) {
			level = "L3"
		}
		item.Level = level
		if item.RequiresConfirmation == nil {
			confirm := level == "L4" || level == "L5"
			item.RequiresConfirmation = &confirm
		}
		normalized = append(normalized, item)
	}
	return normalized
}

// NormalizeBaseURL trims an endpoint and appends the /v1 segment unless the
// URL already carries one.
func NormalizeBaseURL(baseURL string) string {
	text := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	if strings.HasSuffix(lower, "/v1") || strings.Contains(lower, "/v1/") {
		return text
	}
	return text + "/v1"
}
