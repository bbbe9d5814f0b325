package analyzer

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenilsonani/diskwise/internal/scanner"
)

// topLimit caps the top_files and top_folders lists.
const topLimit = 50

// Breakdown accumulates bytes and item counts for one grouping key.
type Breakdown struct {
	Size  int64 `json:"size"`
	Count int   `json:"count"`
}

// Folder pairs a folder path with its accumulated totals.
type Folder struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Count int    `json:"count"`
}

// Stats is the aggregate view of one scan, grouped three ways plus the
// largest individual files and folders.
type Stats struct {
	ExtBreakdown      map[string]Breakdown `json:"ext_breakdown"`
	FolderBreakdown   map[string]Breakdown `json:"folder_breakdown"`
	CategoryBreakdown map[string]Breakdown `json:"category_breakdown"`
	TopFiles          []scanner.Item       `json:"top_files"`
	TopFolders        []Folder             `json:"top_folders"`
}

// BuildStats aggregates scan items by extension, parent folder, and category.
// Extensionless files land under "<none>".
func BuildStats(items []scanner.Item) *Stats {
	stats := &Stats{
		ExtBreakdown:      make(map[string]Breakdown),
		FolderBreakdown:   make(map[string]Breakdown),
		CategoryBreakdown: make(map[string]Breakdown),
	}

	for _, item := range items {
		ext := strings.ToLower(filepath.Ext(item.Path))
		if ext == "" {
			ext = "<none>"
		}
		add(stats.ExtBreakdown, ext, item.SizeBytes)
		add(stats.FolderBreakdown, filepath.Dir(item.Path), item.SizeBytes)
		add(stats.CategoryBreakdown, string(item.Category), item.SizeBytes)
	}

	top := make([]scanner.Item, len(items))
	copy(top, items)
	sort.SliceStable(top, func(i, j int) bool { return top[i].SizeBytes > top[j].SizeBytes })
	if len(top) > topLimit {
		top = top[:topLimit]
	}
	stats.TopFiles = top

	folders := make([]Folder, 0, len(stats.FolderBreakdown))
	for path, b := range stats.FolderBreakdown {
		folders = append(folders, Folder{Path: path, Size: b.Size, Count: b.Count})
	}
	sort.SliceStable(folders, func(i, j int) bool {
		if folders[i].Size != folders[j].Size {
			return folders[i].Size > folders[j].Size
		}
		return folders[i].Path < folders[j].Path
	})
	if len(folders) > topLimit {
		folders = folders[:topLimit]
	}
	stats.TopFolders = folders

	return stats
}

func add(m map[string]Breakdown, key string, size int64) {
	b := m[key]
	b.Size += size
	b.Count++
	m[key] = b
}
