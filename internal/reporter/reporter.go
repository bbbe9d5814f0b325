package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/cleaner"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

const separatorWidth = 110

func (r *Reporter) separator() {
	fmt.Fprintln(r.writer, strings.Repeat("-", separatorWidth))
}

// ReportScan renders scan results in the configured format.
func (r *Reporter) ReportScan(result *scanner.Result) error {
	switch r.format {
	case FormatTable:
		return r.scanTable(result)
	case FormatJSON:
		return r.encodeJSON(scanEnvelope(result))
	case FormatYAML:
		return r.encodeYAML(scanEnvelope(result))
	case FormatSummary:
		return r.scanSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func scanEnvelope(result *scanner.Result) interface{} {
	return struct {
		Timestamp          string         `json:"timestamp" yaml:"timestamp"`
		TotalItems         int            `json:"total_items" yaml:"total_items"`
		TotalSize          int64          `json:"total_size" yaml:"total_size"`
		TotalSizeFormatted string         `json:"total_size_formatted" yaml:"total_size_formatted"`
		Stopped            bool           `json:"stopped" yaml:"stopped"`
		Items              []scanner.Item `json:"items" yaml:"items"`
		Skipped            []string       `json:"skipped" yaml:"skipped"`
	}{
		Timestamp:          time.Now().Format(time.RFC3339),
		TotalItems:         len(result.Items),
		TotalSize:          result.TotalSize(),
		TotalSizeFormatted: utils.FormatBytes(result.TotalSize()),
		Stopped:            result.Stopped,
		Items:              result.Items,
		Skipped:            result.Skipped,
	}
}

func (r *Reporter) scanSummary(result *scanner.Result) error {
	fmt.Fprintf(r.writer, "=== Scan Summary ===\n")
	fmt.Fprintf(r.writer, "Total Items: %d\n", len(result.Items))
	fmt.Fprintf(r.writer, "Total Size: %s\n", utils.FormatBytes(result.TotalSize()))
	if result.Stopped {
		fmt.Fprintf(r.writer, "Scan was cancelled before finishing.\n")
	}

	byCategory := map[string]struct {
		count int
		size  int64
	}{}
	for _, item := range result.Items {
		entry := byCategory[string(item.Category)]
		entry.count++
		entry.size += item.SizeBytes
		byCategory[string(item.Category)] = entry
	}

	fmt.Fprintf(r.writer, "\nBreakdown by Category:\n")
	for category, entry := range byCategory {
		fmt.Fprintf(r.writer, "  %s: %d files, %s\n", category, entry.count, utils.FormatBytes(entry.size))
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(r.writer, "\nSkipped paths: %d\n", len(result.Skipped))
	}
	return nil
}

func (r *Reporter) scanTable(result *scanner.Result) error {
	fmt.Fprintf(r.writer, "%-60s | %-12s | %-24s | %s\n", "Path", "Size", "Category", "Modified")
	r.separator()

	for _, item := range result.Items {
		path := item.Path
		if len(path) > 60 {
			path = "..." + path[len(path)-57:]
		}
		fmt.Fprintf(r.writer, "%-60s | %-12s | %-24s | %s\n",
			path,
			utils.FormatBytes(item.SizeBytes),
			item.Category,
			item.ModTime.Format("2006-01-02 15:04:05"))
	}

	r.separator()
	fmt.Fprintf(r.writer, "Total: %d items, %s\n", len(result.Items), utils.FormatBytes(result.TotalSize()))
	return nil
}

// ReportAdvice renders an advisory result.
func (r *Reporter) ReportAdvice(result *advisor.Result) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(result)
	case FormatYAML:
		return r.encodeYAML(result)
	case FormatTable:
		return r.adviceTable(result)
	case FormatSummary:
		return r.adviceSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) adviceSummary(result *advisor.Result) error {
	summary := result.Advice.Summary
	fmt.Fprintf(r.writer, "=== Advisory Summary ===\n")
	fmt.Fprintf(r.writer, "%s\n", result.Advice.Diagnosis.Summary)
	fmt.Fprintf(r.writer, "Estimated Savings: %s\n", utils.FormatBytes(summary.EstimatedSavingsBytes))

	fmt.Fprintf(r.writer, "\nLevels:\n")
	for _, level := range advisor.Levels {
		fmt.Fprintf(r.writer, "  %s: %d items\n", level, summary.LevelCounts[level])
	}

	if len(result.Advice.Diagnosis.Highlights) > 0 {
		fmt.Fprintf(r.writer, "\nHighlights:\n")
		for _, h := range result.Advice.Diagnosis.Highlights {
			fmt.Fprintf(r.writer, "  - %s\n", h)
		}
	}
	if summary.RemoteAppliedItems > 0 {
		fmt.Fprintf(r.writer, "\nRemote opinions applied: %d\n", summary.RemoteAppliedItems)
	}
	return nil
}

func (r *Reporter) adviceTable(result *advisor.Result) error {
	fmt.Fprintf(r.writer, "%-5s | %-50s | %-12s | %-6s | %s\n", "Level", "Path", "Size", "Conf", "Action")
	r.separator()

	for _, item := range result.Advice.Items {
		path := item.Target
		if len(path) > 50 {
			path = "..." + path[len(path)-47:]
		}
		confirm := ""
		if item.RequiresConfirmation {
			confirm = " (confirm)"
		}
		fmt.Fprintf(r.writer, "%-5s | %-50s | %-12s | %.2f | %s%s\n",
			item.Level,
			path,
			utils.FormatBytes(item.EstimatedSavingsBytes),
			item.Confidence,
			item.RecommendedAction,
			confirm)
	}

	r.separator()
	fmt.Fprintf(r.writer, "Estimated savings (L1-L3): %s\n",
		utils.FormatBytes(result.Advice.Summary.EstimatedSavingsBytes))
	return nil
}

// ReportCleanup renders a cleanup result.
func (r *Reporter) ReportCleanup(result *cleaner.Result) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(result)
	case FormatYAML:
		return r.encodeYAML(result)
	case FormatTable, FormatSummary:
		return r.cleanupSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) cleanupSummary(result *cleaner.Result) error {
	fmt.Fprintf(r.writer, "=== Cleanup Summary ===\n")
	fmt.Fprintf(r.writer, "Deleted: %d items, %s freed\n", len(result.Deleted), utils.FormatBytes(result.FreedBytes()))
	fmt.Fprintf(r.writer, "Failed: %d\n", len(result.Failed))
	fmt.Fprintf(r.writer, "Skipped: %d\n", len(result.Skipped))

	for _, f := range result.Failed {
		fmt.Fprintf(r.writer, "  failed: %s (%s)\n", f.Path, f.Error)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(r.writer, "  skipped: %s (%s)\n", s.Path, s.Reason)
	}
	return nil
}

func (r *Reporter) encodeJSON(value interface{}) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func (r *Reporter) encodeYAML(value interface{}) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(value)
}

// SaveScanToFile writes a scan report to a file.
func SaveScanToFile(result *scanner.Result, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return New(file, format).ReportScan(result)
}
