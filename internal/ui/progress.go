package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/pkg/utils"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// LiveProgress renders scan and cleanup progress in place on a terminal.
// On non-terminal output it stays silent.
type LiveProgress struct {
	mu          sync.Mutex
	stage       string
	currentPath string
	filesSeen   int
	itemsFound  int
	freedBytes  int64
	startTime   time.Time
	lastUpdate  time.Time
	termWidth   int
	enabled     bool
	statusLines int
}

// NewLiveProgress creates a new live progress display
func NewLiveProgress() *LiveProgress {
	fd := os.Stdout.Fd()
	enabled := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	width := 80
	if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
		width = w
	}

	return &LiveProgress{
		startTime:   time.Now(),
		termWidth:   width,
		enabled:     enabled,
		statusLines: 3,
	}
}

// Attach subscribes to bus and renders its events until the returned stop
// function is called.
func (lp *LiveProgress) Attach(bus *progress.Bus) func() {
	sub := bus.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range sub {
			switch ev := ev.(type) {
			case progress.ScanEvent:
				lp.UpdateScan(ev)
			case progress.CleanEvent:
				lp.UpdateClean(ev)
			}
		}
	}()

	return func() {
		bus.Unsubscribe(sub)
		<-done
	}
}

// Start initializes the progress display area
func (lp *LiveProgress) Start() {
	if !lp.enabled {
		return
	}
	// Reserve space for status lines
	fmt.Print("\n\n\n")
	// Move cursor up to the reserved area
	fmt.Printf("\033[%dA", lp.statusLines)
}

// UpdateScan renders a scanner progress event.
func (lp *LiveProgress) UpdateScan(ev progress.ScanEvent) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled || !lp.throttle() {
		return
	}

	lp.stage = "Scanning"
	lp.currentPath = ev.Current
	lp.filesSeen = ev.FilesSeen
	lp.itemsFound = ev.ItemsFound

	lp.render(fmt.Sprintf("📂 %s | Seen: %d files | Candidates: %d | Time: %s",
		lp.stage, lp.filesSeen, lp.itemsFound, time.Since(lp.startTime).Round(time.Second)))
}

// UpdateClean renders a cleanup progress event.
func (lp *LiveProgress) UpdateClean(ev progress.CleanEvent) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled || !lp.throttle() {
		return
	}

	lp.stage = "Cleaning"
	lp.currentPath = ev.CurrentPath
	lp.freedBytes = ev.FreedBytes

	lp.render(fmt.Sprintf("🗑  %s | %d/%d items | Freed: %s | Time: %s",
		lp.stage, ev.Done, ev.Total, utils.FormatBytes(lp.freedBytes),
		time.Since(lp.startTime).Round(time.Second)))
}

// throttle limits redraws to roughly ten per second.
func (lp *LiveProgress) throttle() bool {
	now := time.Now()
	if now.Sub(lp.lastUpdate) < 100*time.Millisecond {
		return false
	}
	lp.lastUpdate = now
	return true
}

// render draws the progress display
func (lp *LiveProgress) render(headline string) {
	// Save cursor position
	fmt.Print("\033[s")

	width := lp.termWidth - 2

	// Line 1: stage and stats
	fmt.Printf("\033[K%s\n", truncateLine(headline, width))

	// Line 2: current path with animation
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := frames[int(time.Now().UnixMilli()/100)%len(frames)]
	path := lp.currentPath
	if len(path) > width-10 {
		path = "..." + path[len(path)-(width-13):]
	}
	fmt.Printf("\033[K%s %s\n", frame, path)

	// Line 3: separator
	fmt.Printf("\033[K%s", strings.Repeat("─", width))

	// Restore cursor position
	fmt.Print("\033[u")
}

// Finish completes the progress display
func (lp *LiveProgress) Finish() {
	if !lp.enabled {
		return
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()

	// Move to the end and clear the status lines
	fmt.Printf("\033[%dB", lp.statusLines)
	fmt.Print("\033[K\n")
}

// SetEnabled enables or disables live progress
func (lp *LiveProgress) SetEnabled(enabled bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.enabled = enabled
}

// truncateLine truncates a string to fit width
func truncateLine(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width < 4 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// PrintLevelTree prints the rated items grouped by caution level, then by
// parent directory, as an indented tree.
func PrintLevelTree(advice *advisor.Result, items []scanner.Item) {
	var total int64
	var count int

	for _, level := range advisor.Levels {
		group := advice.Advice.LevelGroups[level]
		if len(group) == 0 {
			continue
		}

		var levelSize int64
		dirs := make(map[string][]advisor.ItemAdvice)
		var dirOrder []string
		for _, rec := range group {
			levelSize += rec.EstimatedSavingsBytes
			dir := parentDir(rec.Target)
			if _, seen := dirs[dir]; !seen {
				dirOrder = append(dirOrder, dir)
			}
			dirs[dir] = append(dirs[dir], rec)
		}
		count += len(group)
		total += levelSize

		fmt.Printf("\n╭─ %s %s (%d items, %s)\n", level, levelLabel(level), len(group), utils.FormatBytes(levelSize))

		for di, dir := range dirOrder {
			isLastDir := di == len(dirOrder)-1

			connector := "├"
			if isLastDir {
				connector = "╰"
			}

			var dirSize int64
			for _, rec := range dirs[dir] {
				dirSize += rec.EstimatedSavingsBytes
			}
			fmt.Printf("%s── 📁 %s (%s)\n", connector, dir, utils.FormatBytes(dirSize))

			// Show up to 5 entries per directory
			entries := dirs[dir]
			maxShown := 5
			shown := len(entries)
			if shown > maxShown {
				shown = maxShown
			}

			for i := 0; i < shown; i++ {
				rec := entries[i]
				fileConnector := "│   ├"
				if isLastDir {
					fileConnector = "    ├"
				}
				if i == shown-1 && len(entries) <= maxShown {
					if isLastDir {
						fileConnector = "    ╰"
					} else {
						fileConnector = "│   ╰"
					}
				}
				fmt.Printf("%s── %s (%s)\n", fileConnector, rec.FileName, utils.FormatBytes(rec.EstimatedSavingsBytes))
			}

			if len(entries) > maxShown {
				moreConnector := "│   ╰"
				if isLastDir {
					moreConnector = "    ╰"
				}
				fmt.Printf("%s── ... and %d more items\n", moreConnector, len(entries)-maxShown)
			}
		}
	}

	fmt.Printf("\n════════════════════════════════════════════════════════\n")
	fmt.Printf("Total: %d items | %s rated across %d scanned candidates\n", count, utils.FormatBytes(total), len(items))
}

// levelLabel returns a short English tag for a level in tree output.
func levelLabel(level string) string {
	switch level {
	case "L1":
		return "auto-clean"
	case "L2":
		return "low risk"
	case "L3":
		return "review"
	case "L4":
		return "confirm"
	case "L5":
		return "protected"
	default:
		return ""
	}
}

// parentDir returns the directory part of a Windows path.
func parentDir(path string) string {
	if i := strings.LastIndexByte(path, '\\'); i > 0 {
		return path[:i]
	}
	return path
}
