package scanner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/diskwise/internal/classify"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/rules"
	"github.com/fenilsonani/diskwise/internal/testutil"
)

func tempRule(f *testutil.Fixture) rules.Rule {
	return rules.Rule{
		Name:            "UserTemp",
		BasePaths:       []string{f.UserTemp},
		IncludePatterns: []string{rules.Wildcard},
		Risk:            rules.RiskLow,
		Category:        "temp",
	}
}

func logsRule(f *testutil.Fixture) rules.Rule {
	return rules.Rule{
		Name:            "LogsAndDumps",
		BasePaths:       []string{f.HomeDir},
		IncludePatterns: []string{"*.log", "*.dmp"},
		Risk:            rules.RiskLow,
		Category:        "logs",
	}
}

// =============================================================================
// Rule Walk Tests
// =============================================================================

func TestScanMatchesCurrentRuleOnly(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTempFile("a.tmp", 10)
	f.CreateTempFile("b.bin", 20)
	f.CreateFileWithAge("Users/demo/notes.txt", []byte("x"), 48*time.Hour)
	f.CreateFileWithAge("Users/demo/debug.log", []byte("log"), 48*time.Hour)

	s := New(Options{Catalog: []rules.Rule{tempRule(f), logsRule(f)}}, nil, nil)
	result := s.Scan(context.Background())

	byPath := make(map[string]Item)
	for _, item := range result.Items {
		byPath[filepath.Base(item.Path)] = item
	}

	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d: %v", len(result.Items), byPath)
	}
	if byPath["a.tmp"].RuleName != "UserTemp" || byPath["b.bin"].RuleName != "UserTemp" {
		t.Error("temp files should be claimed by UserTemp")
	}
	if byPath["debug.log"].RuleName != "LogsAndDumps" {
		t.Errorf("debug.log rule = %q, want LogsAndDumps", byPath["debug.log"].RuleName)
	}
	if _, ok := byPath["notes.txt"]; ok {
		t.Error("notes.txt matches no rule pattern and must not be emitted")
	}
}

func TestScanDeduplicatesAcrossRules(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTempFile("trace.log", 10)

	// Both rules cover the temp dir; the log matches both patterns.
	catalog := []rules.Rule{tempRule(f), logsRule(f)}
	s := New(Options{Catalog: catalog}, nil, nil)
	result := s.Scan(context.Background())

	count := 0
	for _, item := range result.Items {
		if strings.HasSuffix(item.Path, "trace.log") {
			count++
			if item.RuleName != "UserTemp" {
				t.Errorf("first rule in catalog order must claim the path, got %q", item.RuleName)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one emission of trace.log, got %d", count)
	}

	// No two items may share a case-insensitive path.
	seen := make(map[string]bool)
	for _, item := range result.Items {
		norm := strings.ToLower(item.Path)
		if seen[norm] {
			t.Errorf("duplicate path emitted: %s", item.Path)
		}
		seen[norm] = true
	}
}

func TestScanMissingBaseDirectoriesTolerated(t *testing.T) {
	f := testutil.NewFixture(t)
	rule := rules.Rule{
		Name:            "Ghost",
		BasePaths:       []string{filepath.Join(f.RootDir, "does", "not", "exist")},
		IncludePatterns: []string{rules.Wildcard},
		Risk:            rules.RiskLow,
		Category:        "cache",
	}

	s := New(Options{Catalog: []rules.Rule{rule}}, nil, nil)
	result := s.Scan(context.Background())

	if len(result.Items) != 0 || len(result.Skipped) != 0 {
		t.Errorf("missing base must produce neither items nor skips, got %d/%d",
			len(result.Items), len(result.Skipped))
	}
}

func TestScanRecencyFlag(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTempFile("stale.tmp", 10)
	fresh := f.CreateFile("Users/demo/AppData/Local/Temp/fresh.tmp", []byte("new"))

	s := New(Options{Catalog: []rules.Rule{tempRule(f)}}, nil, nil)
	result := s.Scan(context.Background())

	for _, item := range result.Items {
		switch filepath.Base(item.Path) {
		case "stale.tmp":
			if item.IsRecent {
				t.Error("48h-old file must not be recent")
			}
		case "fresh.tmp":
			if !item.IsRecent {
				t.Errorf("just-created file %s must be recent", fresh)
			}
		}
	}
}

func TestScanItemDefaults(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTempFile("a.tmp", 64)

	s := New(Options{Catalog: []rules.Rule{tempRule(f)}}, nil, nil)
	result := s.Scan(context.Background())

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	item := result.Items[0]
	if item.Level != DefaultLevel {
		t.Errorf("default level = %q, want %q", item.Level, DefaultLevel)
	}
	if item.IsForbidden {
		t.Error("emitted items are never forbidden")
	}
	if item.SizeBytes != 64 {
		t.Errorf("size = %d, want 64", item.SizeBytes)
	}
	if item.Category != classify.TemporaryFiles {
		t.Errorf("category = %q, want %q", item.Category, classify.TemporaryFiles)
	}
	if item.RuleRisk != rules.RiskLow {
		t.Errorf("rule risk = %q, want low", item.RuleRisk)
	}
}

// =============================================================================
// Large File Sweep Tests
// =============================================================================

func TestScanLargeFileSweep(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSparseLargeFile("Users/demo/Downloads/huge.iso", 600*1024*1024)
	f.CreateFileWithAge("Users/demo/Downloads/small.iso", make([]byte, 100), 48*time.Hour)

	s := New(Options{
		SuggestionTargets: []string{f.Downloads, f.Desktop, f.Documents},
	}, nil, nil)
	result := s.Scan(context.Background())

	if len(result.Items) != 1 {
		t.Fatalf("expected only the oversized file, got %d items", len(result.Items))
	}
	item := result.Items[0]
	if !strings.HasSuffix(item.Path, "huge.iso") {
		t.Fatalf("unexpected item %s", item.Path)
	}
	if !item.IsSuggestionOnly {
		t.Error("sweep hits must be suggestion-only")
	}
	if item.RuleName != "LargeFile" || item.RuleRisk != rules.RiskSuggest {
		t.Errorf("rule = %s/%s, want LargeFile/suggest", item.RuleName, item.RuleRisk)
	}
	if item.Category != classify.LargeFiles {
		t.Errorf("category = %q, want %q", item.Category, classify.LargeFiles)
	}
}

func TestScanLargeFileSweepThresholdOverride(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFileWithAge("Users/demo/Desktop/video.bin", make([]byte, 4096), 48*time.Hour)

	s := New(Options{
		SuggestionTargets:  []string{f.Desktop},
		LargeFileThreshold: 1024,
	}, nil, nil)
	result := s.Scan(context.Background())

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item with lowered threshold, got %d", len(result.Items))
	}
}

func TestScanSweepDeduplicatesAgainstRuleItems(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFileWithAge("Users/demo/Downloads/dup.log", make([]byte, 2048), 48*time.Hour)

	s := New(Options{
		Catalog:            []rules.Rule{logsRule(f)},
		SuggestionTargets:  []string{f.Downloads},
		LargeFileThreshold: 1024,
	}, nil, nil)
	result := s.Scan(context.Background())

	count := 0
	for _, item := range result.Items {
		if strings.HasSuffix(item.Path, "dup.log") {
			count++
			if item.IsSuggestionOnly {
				t.Error("rule match must win over the sweep for the same path")
			}
		}
	}
	if count != 1 {
		t.Errorf("expected one emission, got %d", count)
	}
}

// =============================================================================
// Cancellation Tests
// =============================================================================

func TestScanCancellationReturnsPartialResult(t *testing.T) {
	f := testutil.NewFixture(t)
	for i := 0; i < 50; i++ {
		f.CreateTempFile(filepath.Join("many", "f"+string(rune('a'+i%26))+string(rune('a'+i/26))+".tmp"), 8)
	}

	full := New(Options{Catalog: []rules.Rule{tempRule(f)}}, nil, nil).Scan(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	partial := New(Options{Catalog: []rules.Rule{tempRule(f)}}, nil, nil).Scan(ctx)

	if !partial.Stopped {
		t.Error("cancelled scan must be marked stopped")
	}
	if len(partial.Items) > len(full.Items) {
		t.Errorf("cancelled scan emitted %d items, more than full scan's %d",
			len(partial.Items), len(full.Items))
	}
	if partial.Duration > full.Duration+time.Second {
		t.Error("cancelled scan should not take longer than the full scan")
	}
}

// =============================================================================
// Progress Tests
// =============================================================================

func TestScanEmitsBoundaryEvents(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateTempFile("a.tmp", 10)

	bus := progress.NewBus()
	ch := bus.Subscribe()

	s := New(Options{
		Catalog:           []rules.Rule{tempRule(f)},
		SuggestionTargets: []string{f.Downloads},
	}, bus, nil)
	s.Scan(context.Background())

	stages := make(map[string]bool)
	for {
		select {
		case ev := <-ch:
			if scan, ok := ev.(progress.ScanEvent); ok {
				stages[scan.Stage] = true
			}
		default:
			for _, want := range []string{
				progress.StageStarting,
				progress.StageScanningRoot,
				progress.StageLargeFile,
				progress.StageCompleted,
			} {
				if !stages[want] {
					t.Errorf("boundary stage %q was not emitted", want)
				}
			}
			return
		}
	}
}
