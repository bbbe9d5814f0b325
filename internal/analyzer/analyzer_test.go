package analyzer

import (
	"testing"

	"github.com/fenilsonani/diskwise/internal/classify"
	"github.com/fenilsonani/diskwise/internal/scanner"
)

// ============================================================================
// Stats aggregation
// ============================================================================

func item(path string, size int64, cat classify.Category) scanner.Item {
	return scanner.Item{Path: path, SizeBytes: size, Category: cat}
}

func TestBuildStatsBreakdowns(t *testing.T) {
	items := []scanner.Item{
		item(`C:\Users\demo\AppData\Local\Temp\a.tmp`, 100, classify.TemporaryFiles),
		item(`C:\Users\demo\AppData\Local\Temp\b.tmp`, 200, classify.TemporaryFiles),
		item(`C:\Users\demo\Downloads\setup.exe`, 5000, classify.InstallerPackages),
		item(`C:\Users\demo\Downloads\noext`, 10, classify.OtherFiles),
	}

	stats := BuildStats(items)

	if got := stats.ExtBreakdown[".tmp"]; got.Size != 300 || got.Count != 2 {
		t.Errorf("ext .tmp = %+v, want size 300 count 2", got)
	}
	if got := stats.ExtBreakdown["<none>"]; got.Size != 10 || got.Count != 1 {
		t.Errorf("ext <none> = %+v, want size 10 count 1", got)
	}
	if got := stats.CategoryBreakdown[string(classify.TemporaryFiles)]; got.Size != 300 || got.Count != 2 {
		t.Errorf("category temporary_files = %+v, want size 300 count 2", got)
	}

	tempDir := `C:\Users\demo\AppData\Local\Temp`
	if got := stats.FolderBreakdown[tempDir]; got.Size != 300 || got.Count != 2 {
		t.Errorf("folder %s = %+v, want size 300 count 2", tempDir, got)
	}
}

func TestBuildStatsTopFilesSortedBySize(t *testing.T) {
	items := []scanner.Item{
		item(`C:\a\small.log`, 1, classify.ApplicationLogFiles),
		item(`C:\a\big.iso`, 900, classify.DiskImageFiles),
		item(`C:\a\mid.zip`, 500, classify.ArchiveFiles),
	}

	stats := BuildStats(items)

	if len(stats.TopFiles) != 3 {
		t.Fatalf("len(TopFiles) = %d, want 3", len(stats.TopFiles))
	}
	if stats.TopFiles[0].Path != `C:\a\big.iso` || stats.TopFiles[2].Path != `C:\a\small.log` {
		t.Errorf("top files not sorted by size desc: %v, %v", stats.TopFiles[0].Path, stats.TopFiles[2].Path)
	}
}

func TestBuildStatsTopFoldersLimit(t *testing.T) {
	var items []scanner.Item
	for i := 0; i < topLimit+20; i++ {
		path := `C:\data\` + string(rune('a'+i%26)) + string(rune('a'+i/26)) + `\f.bin`
		items = append(items, item(path, int64(i+1), classify.OtherFiles))
	}

	stats := BuildStats(items)

	if len(stats.TopFolders) != topLimit {
		t.Fatalf("len(TopFolders) = %d, want %d", len(stats.TopFolders), topLimit)
	}
	for i := 1; i < len(stats.TopFolders); i++ {
		if stats.TopFolders[i].Size > stats.TopFolders[i-1].Size {
			t.Fatalf("top folders not sorted at index %d", i)
		}
	}
}

func TestBuildStatsEmptyInput(t *testing.T) {
	stats := BuildStats(nil)
	if len(stats.ExtBreakdown) != 0 || len(stats.TopFiles) != 0 || len(stats.TopFolders) != 0 {
		t.Errorf("empty input produced non-empty stats: %+v", stats)
	}
}
