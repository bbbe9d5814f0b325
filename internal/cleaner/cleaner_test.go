//go:build !windows

package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/diskwise/internal/classify"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/testutil"
	"github.com/fenilsonani/diskwise/internal/trash"
)

func newItem(path string, size int64) scanner.Item {
	return scanner.Item{Path: path, SizeBytes: size, Category: classify.TemporaryFiles}
}

func partitionCount(r *Result) int {
	return len(r.Deleted) + len(r.Failed) + len(r.Skipped)
}

// ============================================================================
// Partitioning
// ============================================================================

func TestCleanPartitionsEveryItem(t *testing.T) {
	t.Setenv(trash.TrashDirEnv, t.TempDir())
	fx := testutil.NewFixture(t)

	real := fx.CreateTempFile("real.tmp", 128)
	items := []scanner.Item{
		newItem(real, 128),
		newItem(filepath.Join(fx.UserTemp, "gone.tmp"), 64), // never created
		{Path: `C:\Windows\System32\hal.dll`, SizeBytes: 32, IsForbidden: true},
		{Path: filepath.Join(fx.Downloads, "big.iso"), SizeBytes: 16, IsSuggestionOnly: true},
	}

	result := New(Options{}, nil, nil).Clean(context.Background(), items)

	if got := partitionCount(result); got != len(items) {
		t.Fatalf("partitions hold %d entries, want %d", got, len(items))
	}
	if len(result.Deleted) != 1 || result.Deleted[0].Path != real {
		t.Errorf("deleted = %+v", result.Deleted)
	}
	if result.Deleted[0].Method != MethodTrash {
		t.Errorf("method = %q, want %q", result.Deleted[0].Method, MethodTrash)
	}
	if len(result.Skipped) != 3 {
		t.Fatalf("skipped = %+v", result.Skipped)
	}

	reasons := map[string]string{}
	for _, s := range result.Skipped {
		reasons[s.Path] = s.Reason
	}
	if reasons[filepath.Join(fx.UserTemp, "gone.tmp")] != SkipMissing {
		t.Errorf("missing file reason = %q", reasons[filepath.Join(fx.UserTemp, "gone.tmp")])
	}
	if reasons[`C:\Windows\System32\hal.dll`] != SkipForbiddenOrSuggestion {
		t.Errorf("forbidden reason = %q", reasons[`C:\Windows\System32\hal.dll`])
	}
	if reasons[filepath.Join(fx.Downloads, "big.iso")] != SkipForbiddenOrSuggestion {
		t.Errorf("suggestion reason = %q", reasons[filepath.Join(fx.Downloads, "big.iso")])
	}

	if testutil.FileExists(real) {
		t.Error("deleted file still on disk")
	}
}

func TestCleanEmptyPlan(t *testing.T) {
	result := New(Options{}, nil, nil).Clean(context.Background(), nil)

	if partitionCount(result) != 0 {
		t.Errorf("empty plan produced entries: %+v", result)
	}
	if result.Deleted == nil || result.Failed == nil || result.Skipped == nil {
		t.Error("partitions must be empty lists, not nil")
	}
}

// ============================================================================
// Dry run
// ============================================================================

func TestCleanDryRunTouchesNothing(t *testing.T) {
	fx := testutil.NewFixture(t)
	real := fx.CreateTempFile("keep.tmp", 256)

	result := New(Options{DryRun: true}, nil, nil).Clean(context.Background(), []scanner.Item{newItem(real, 256)})

	if len(result.Deleted) != 1 || !result.Deleted[0].DryRun {
		t.Fatalf("deleted = %+v, want one dry-run entry", result.Deleted)
	}
	if result.Deleted[0].Method != "" {
		t.Errorf("dry-run entry carries method %q", result.Deleted[0].Method)
	}
	if !testutil.FileExists(real) {
		t.Error("dry run removed a file")
	}
	if result.FreedBytes() != 256 {
		t.Errorf("freed = %d, want 256", result.FreedBytes())
	}
}

func TestCleanDryRunStillSkipsForbidden(t *testing.T) {
	result := New(Options{DryRun: true}, nil, nil).Clean(context.Background(), []scanner.Item{
		{Path: `C:\Windows\System32\hal.dll`, SizeBytes: 32, IsForbidden: true},
	})

	if len(result.Deleted) != 0 || len(result.Skipped) != 1 {
		t.Errorf("forbidden item not skipped in dry run: %+v", result)
	}
}

// ============================================================================
// Forbidden recheck
// ============================================================================

func TestCleanRechecksForbiddenRegardlessOfFlags(t *testing.T) {
	// Flags say the item is clean, the path says otherwise.
	items := []scanner.Item{
		{Path: `C:\Windows\System32\drivers\disk.sys`, SizeBytes: 10},
		{Path: `C:\Program Files\App\app.exe`, SizeBytes: 10},
	}

	result := New(Options{}, nil, nil).Clean(context.Background(), items)

	if len(result.Skipped) != 2 {
		t.Fatalf("skipped = %+v, want both items", result.Skipped)
	}
	for _, s := range result.Skipped {
		if s.Reason != SkipForbiddenOrSuggestion {
			t.Errorf("%s reason = %q", s.Path, s.Reason)
		}
	}
}

// ============================================================================
// Hard delete fallback
// ============================================================================

func TestCleanFallsBackToHardDelete(t *testing.T) {
	// Point the trash at a file so the rename into it fails.
	blocked := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(trash.TrashDirEnv, filepath.Join(blocked, "files"))

	fx := testutil.NewFixture(t)
	real := fx.CreateTempFile("stubborn.tmp", 64)

	denied := New(Options{}, nil, nil).Clean(context.Background(), []scanner.Item{newItem(real, 64)})
	if len(denied.Failed) != 1 {
		t.Fatalf("without AllowHardDelete: %+v", denied)
	}
	if !testutil.FileExists(real) {
		t.Fatal("failed item was removed anyway")
	}

	allowed := New(Options{AllowHardDelete: true}, nil, nil).Clean(context.Background(), []scanner.Item{newItem(real, 64)})
	if len(allowed.Deleted) != 1 || allowed.Deleted[0].Method != MethodDelete {
		t.Fatalf("with AllowHardDelete: %+v", allowed)
	}
	if testutil.FileExists(real) {
		t.Error("hard delete left the file behind")
	}
}

// ============================================================================
// Cancellation
// ============================================================================

func TestCleanCancelledMarksRemainingSkipped(t *testing.T) {
	fx := testutil.NewFixture(t)
	a := fx.CreateTempFile("a.tmp", 1)
	b := fx.CreateTempFile("b.tmp", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(Options{}, nil, nil).Clean(ctx, []scanner.Item{newItem(a, 1), newItem(b, 1)})

	if len(result.Skipped) != 2 {
		t.Fatalf("skipped = %+v", result.Skipped)
	}
	for _, s := range result.Skipped {
		if s.Reason != SkipCancelled {
			t.Errorf("reason = %q, want %q", s.Reason, SkipCancelled)
		}
	}
	if !testutil.FileExists(a) || !testutil.FileExists(b) {
		t.Error("cancelled run removed files")
	}
}

// ============================================================================
// Failure categorization
// ============================================================================

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorReason
	}{
		{"missing", os.ErrNotExist, ErrorFileNotFound},
		{"permission", os.ErrPermission, ErrorPermissionDenied},
		{"opaque", context.DeadlineExceeded, ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategorizeError(`C:\Temp\x.tmp`, tt.err)
			if got.Reason != tt.want {
				t.Errorf("reason = %v, want %v", got.Reason, tt.want)
			}
			if got.Original == nil {
				t.Error("original error not preserved")
			}
		})
	}

	if CategorizeError(`C:\Temp\x.tmp`, nil) != nil {
		t.Error("nil error should categorize to nil")
	}
}

func TestFormatFailureSummary(t *testing.T) {
	if got := FormatFailureSummary(nil); got != "" {
		t.Errorf("empty failures produced %q", got)
	}

	failed := []Failed{
		{Path: `C:\a.tmp`, Reason: ErrorPermissionDenied.String()},
		{Path: `C:\b.tmp`, Reason: ErrorPermissionDenied.String()},
		{Path: `C:\c.tmp`, Reason: ErrorFileInUse.String()},
	}
	summary := FormatFailureSummary(failed)
	if !strings.Contains(summary, "Permission denied: 2 files") {
		t.Errorf("summary missing permission group:\n%s", summary)
	}
	if !strings.Contains(summary, "File in use: 1 files") {
		t.Errorf("summary missing in-use group:\n%s", summary)
	}
}

// ============================================================================
// Extra protected roots
// ============================================================================

func TestCleanSkipsExtraProtectedRoots(t *testing.T) {
	fx := testutil.NewFixture(t)
	keep := fx.CreateTempFile("keep.tmp", 64)

	c := New(Options{ExtraProtected: []string{fx.UserTemp}}, nil, nil)
	result := c.Clean(context.Background(), []scanner.Item{newItem(keep, 64)})

	if len(result.Deleted) != 0 {
		t.Errorf("deleted from a protected root: %+v", result.Deleted)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != SkipForbiddenOrSuggestion {
		t.Fatalf("skipped = %+v", result.Skipped)
	}
	if !testutil.FileExists(keep) {
		t.Error("protected file was removed")
	}
}
