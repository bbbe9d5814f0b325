// Package scanner walks the rule catalog's base directories and turns
// matching files into cleanup candidates. The walk is cooperative: the
// context is observed at rule, directory, and file boundaries, and every
// expected failure (missing directory, permission denial, vanished file)
// degrades to a skip entry instead of an error.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fenilsonani/diskwise/internal/classify"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/rules"
)

const (
	// DefaultRecentWindow is how far back a modification still counts as
	// recent.
	DefaultRecentWindow = 24 * time.Hour

	// DefaultLargeFileThreshold is the size at which the suggestion sweep
	// flags a file.
	DefaultLargeFileThreshold = 500 * 1024 * 1024

	// DefaultProgressInterval gates non-boundary progress events.
	DefaultProgressInterval = 200 * time.Millisecond

	largeFileRuleName = "LargeFile"
)

// Options configures a scan.
type Options struct {
	Catalog            []rules.Rule
	SuggestionTargets  []string
	RecentWindow       time.Duration
	LargeFileThreshold int64
	ProgressInterval   time.Duration
}

// Scanner performs rule-driven scans. Construct with New; a zero Scanner is
// not usable.
type Scanner struct {
	opts Options
	bus  *progress.Bus
	log  *zap.Logger

	gate       *progress.Gate
	filesSeen  int
	itemsFound int
}

// New creates a Scanner. bus and log may be nil.
func New(opts Options, bus *progress.Bus, log *zap.Logger) *Scanner {
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = DefaultRecentWindow
	}
	if opts.LargeFileThreshold <= 0 {
		opts.LargeFileThreshold = DefaultLargeFileThreshold
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{
		opts: opts,
		bus:  bus,
		log:  log,
		gate: progress.NewGate(opts.ProgressInterval),
	}
}

// Scan walks every rule's base directories, then sweeps the suggestion
// targets for very large files. Cancelling ctx returns the accumulated
// result; Scan never returns an error for expected filesystem conditions.
func (s *Scanner) Scan(ctx context.Context) *Result {
	start := time.Now()
	result := &Result{Items: []Item{}, Skipped: []string{}}
	seen := make(map[string]bool)

	s.filesSeen = 0
	s.itemsFound = 0
	s.emit(progress.StageStarting, "Preparing scan...", 0, true)

	for _, rule := range s.opts.Catalog {
		for _, base := range rule.BasePaths {
			if ctx.Err() != nil {
				return s.stopped(result, start)
			}
			if _, err := os.Stat(base); err != nil {
				continue
			}
			s.emit(progress.StageScanningRoot, base, 0, true)
			if !s.walkRule(ctx, rule, base, seen, result) {
				return s.stopped(result, start)
			}
		}
	}

	if !s.sweepLargeFiles(ctx, seen, result) {
		return s.stopped(result, start)
	}

	result.Duration = time.Since(start)
	s.emit(progress.StageCompleted, fmt.Sprintf("Scan completed in %.1fs", result.Duration.Seconds()), result.Duration, true)
	s.log.Debug("scan completed",
		zap.Int("items", len(result.Items)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("duration", result.Duration))
	return result
}

// walkRule walks one base directory for one rule. Returns false when the
// context was cancelled mid-walk.
func (s *Scanner) walkRule(ctx context.Context, rule rules.Rule, base string, seen map[string]bool, result *Result) bool {
	cancelled := false

	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			cancelled = true
			return filepath.SkipAll
		}
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %v", path, err))
			return nil
		}

		if d.IsDir() {
			if rules.IsForbidden(path) {
				return filepath.SkipDir
			}
			return nil
		}

		s.filesSeen++
		s.emit(progress.StageScanningFile, path, 0, false)

		// Symlinks/junctions can land a file under a protected root even
		// though its parent directory passed the prune.
		if rules.IsForbidden(path) {
			return nil
		}
		// Match only against the current rule so a file is claimed once per
		// pass; catalog-wide matching happens implicitly through rule order.
		if !rules.Match(path, rule) {
			return nil
		}

		norm := strings.ToLower(path)
		if seen[norm] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %v", path, err))
			return nil
		}

		seen[norm] = true
		result.Items = append(result.Items, s.newItem(path, info, rule, false))
		s.itemsFound++
		s.emit(progress.StageMatched, path, 0, false)
		return nil
	})

	return !cancelled
}

// sweepLargeFiles is the rule-independent pass over user document
// directories, flagging oversized files as suggestion-only candidates.
// Returns false when cancelled.
func (s *Scanner) sweepLargeFiles(ctx context.Context, seen map[string]bool, result *Result) bool {
	s.emit(progress.StageLargeFile, "Scanning for very large files...", 0, true)

	suggestRule := rules.Rule{
		Name:     largeFileRuleName,
		Risk:     rules.RiskSuggest,
		Category: classify.LargeFiles,
	}

	cancelled := false
	for _, base := range s.opts.SuggestionTargets {
		if ctx.Err() != nil {
			return false
		}
		if _, err := os.Stat(base); err != nil {
			continue
		}

		_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				cancelled = true
				return filepath.SkipAll
			}
			if err != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %v", path, err))
				return nil
			}
			if d.IsDir() {
				if rules.IsForbidden(path) {
					return filepath.SkipDir
				}
				return nil
			}

			s.filesSeen++
			s.emit(progress.StageScanningFile, path, 0, false)

			if rules.IsForbidden(path) {
				return nil
			}

			norm := strings.ToLower(path)
			if seen[norm] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %v", path, err))
				return nil
			}
			if info.Size() < s.opts.LargeFileThreshold {
				return nil
			}

			seen[norm] = true
			result.Items = append(result.Items, s.newItem(path, info, suggestRule, true))
			s.itemsFound++
			s.emit(progress.StageMatched, path, 0, false)
			return nil
		})
		if cancelled {
			return false
		}
	}
	return true
}

// newItem builds a scan item from a stat result. Birth time is not portably
// observable, so mtime stands in for ctime.
func (s *Scanner) newItem(path string, info fs.FileInfo, rule rules.Rule, suggestion bool) Item {
	mtime := info.ModTime()
	recent := !suggestion && time.Since(mtime) < s.opts.RecentWindow
	return Item{
		Path:             path,
		SizeBytes:        info.Size(),
		ModTime:          mtime,
		CreateTime:       mtime,
		Category:         classify.Classify(path, rule.Category),
		RuleName:         rule.Name,
		RuleRisk:         rule.Risk,
		IsRecent:         recent,
		IsForbidden:      false,
		IsSuggestionOnly: suggestion,
		Level:            DefaultLevel,
	}
}

func (s *Scanner) stopped(result *Result, start time.Time) *Result {
	result.Duration = time.Since(start)
	result.Stopped = true
	s.emit(progress.StageStopped, "Scan stopped.", result.Duration, true)
	s.log.Debug("scan stopped",
		zap.Int("items", len(result.Items)),
		zap.Duration("duration", result.Duration))
	return result
}

func (s *Scanner) emit(stage, current string, duration time.Duration, force bool) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	if !s.gate.Allow(now, force) {
		return
	}
	s.bus.Publish(progress.ScanEvent{
		Stage:      stage,
		Current:    current,
		FilesSeen:  s.filesSeen,
		ItemsFound: s.itemsFound,
		Duration:   duration,
		Timestamp:  now,
	})
}
