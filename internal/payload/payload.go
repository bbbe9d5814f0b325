// Package payload assembles the advisory request document from a scan. Paths
// can be masked so the request carries only enough of each path to stay
// matchable, and the whole document is trimmed to fit a request size cap.
package payload

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/analyzer"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

const (
	// DefaultMaxItems caps how many identity entries one request carries.
	DefaultMaxItems = 5000

	// maxPayloadBytes is the serialized size cap; payloads over it are
	// trimmed, heavy stats first, identity entries last.
	maxPayloadBytes = 450_000

	// minTrimmedItems is the floor when the identity list must be halved.
	minTrimmedItems = 200

	maskTailSegments = 3
	maskHashLen      = 10
)

// RiskContext carries the per-item flags the advisory service rates against.
type RiskContext struct {
	RuleRisk         string `json:"rule_risk"`
	IsRecent         bool   `json:"is_recent"`
	IsSuggestionOnly bool   `json:"is_suggestion_only"`
}

// Item is one identity entry. ItemID is the item's position in the scan
// order, so responses can be matched back even when paths are masked.
type Item struct {
	ItemID       int         `json:"item_id"`
	FileName     string      `json:"file_name"`
	Path         string      `json:"path"`
	Category     string      `json:"category"`
	Ext          string      `json:"ext"`
	SizeBytes    int64       `json:"size_bytes"`
	ModifiedTime int64       `json:"modified_time"`
	RiskContext  RiskContext `json:"risk_context"`
}

// Thresholds echoes the scan thresholds back to the advisory service.
type Thresholds struct {
	LargeFileMB int64 `json:"large_file_mb"`
}

// UserIntent tells the advisory service how aggressive automation may be.
type UserIntent struct {
	Mode           string     `json:"mode"`
	AllowAutoLevel string     `json:"allow_auto_level"`
	Thresholds     Thresholds `json:"thresholds"`
}

// Meta describes the payload itself.
type Meta struct {
	Masked       bool     `json:"masked"`
	TotalItems   int      `json:"total_items"`
	PayloadItems int      `json:"payload_items"`
	RatingLevels []string `json:"rating_levels"`
}

// Stats is the trimmable stats block. When the payload runs over the size
// cap everything except the category breakdown is dropped.
type Stats struct {
	ExtBreakdown      map[string]analyzer.Breakdown `json:"ext_breakdown,omitempty"`
	FolderBreakdown   map[string]analyzer.Breakdown `json:"folder_breakdown,omitempty"`
	CategoryBreakdown map[string]analyzer.Breakdown `json:"category_breakdown"`
	TopFiles          []scanner.Item                `json:"top_files,omitempty"`
	TopFolders        []analyzer.Folder             `json:"top_folders,omitempty"`
}

// Payload is the full advisory request document.
type Payload struct {
	Identity      []Item     `json:"identity"`
	AnalysisStats *Stats     `json:"analysis_stats,omitempty"`
	UserIntent    UserIntent `json:"user_intent"`
	Meta          Meta       `json:"meta"`
}

// Builder assembles payloads with a fixed masking mode and item cap.
type Builder struct {
	maskPaths bool
	maxItems  int
}

// NewBuilder returns a builder. maxItems <= 0 selects DefaultMaxItems.
func NewBuilder(maskPaths bool, maxItems int) *Builder {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Builder{maskPaths: maskPaths, maxItems: maxItems}
}

// MaskPath collapses a path to its last three segments plus a short hash of
// the full path. The hash keeps masked paths distinct even when the tails
// collide.
func MaskPath(path string) string {
	norm := strings.ReplaceAll(path, "/", `\`)
	segments := strings.FieldsFunc(norm, func(r rune) bool { return r == '\\' })
	if len(segments) > maskTailSegments {
		segments = segments[len(segments)-maskTailSegments:]
	}
	return fmt.Sprintf(`***\%s#%s`, strings.Join(segments, `\`), utils.ShortHash(path, maskHashLen))
}

func (b *Builder) maskPath(path string) string {
	if !b.maskPaths {
		return path
	}
	return MaskPath(path)
}

// Build assembles the request document for items in scan order. Stats may be
// nil. The result is already trimmed to the size cap.
func (b *Builder) Build(items []scanner.Item, stats *analyzer.Stats, intent UserIntent) *Payload {
	limit := len(items)
	if limit > b.maxItems {
		limit = b.maxItems
	}

	identity := make([]Item, 0, limit)
	for idx, item := range items[:limit] {
		identity = append(identity, Item{
			ItemID:       idx,
			FileName:     filepath.Base(item.Path),
			Path:         b.maskPath(item.Path),
			Category:     string(item.Category),
			Ext:          strings.ToLower(filepath.Ext(item.Path)),
			SizeBytes:    item.SizeBytes,
			ModifiedTime: item.ModTime.Unix(),
			RiskContext: RiskContext{
				RuleRisk:         string(item.RuleRisk),
				IsRecent:         item.IsRecent,
				IsSuggestionOnly: item.IsSuggestionOnly,
			},
		})
	}

	payload := &Payload{
		Identity:   identity,
		UserIntent: intent,
		Meta: Meta{
			Masked:       b.maskPaths,
			TotalItems:   len(items),
			PayloadItems: len(identity),
			RatingLevels: advisor.Levels,
		},
	}
	if stats != nil {
		payload.AnalysisStats = &Stats{
			ExtBreakdown:      stats.ExtBreakdown,
			FolderBreakdown:   stats.FolderBreakdown,
			CategoryBreakdown: stats.CategoryBreakdown,
			TopFiles:          stats.TopFiles,
			TopFolders:        stats.TopFolders,
		}
	}
	return autoTrim(payload)
}

func serializedSize(p *Payload) int {
	data, err := json.Marshal(p)
	if err != nil {
		return 0
	}
	return len(data)
}

// autoTrim keeps the identity list intact as long as possible: first the
// stats block is reduced to the category breakdown, then the identity list
// is halved with a floor of minTrimmedItems.
func autoTrim(p *Payload) *Payload {
	if serializedSize(p) <= maxPayloadBytes {
		return p
	}

	if p.AnalysisStats != nil {
		p.AnalysisStats = &Stats{CategoryBreakdown: p.AnalysisStats.CategoryBreakdown}
	}
	if serializedSize(p) <= maxPayloadBytes {
		return p
	}

	keep := len(p.Identity) / 2
	if keep < minTrimmedItems {
		keep = minTrimmedItems
	}
	if keep < len(p.Identity) {
		p.Identity = p.Identity[:keep]
		p.Meta.PayloadItems = len(p.Identity)
	}
	return p
}
