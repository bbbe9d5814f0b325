// Package cleaner executes cleanup plans. Every path is re-validated against
// the protection rules in the moment before removal, files go to the recycle
// facility first, and the result partitions every input item into exactly one
// of deleted, failed, or skipped.
package cleaner

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/rules"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/security"
	"github.com/fenilsonani/diskwise/internal/trash"
)

// Skip reasons recorded in the result.
const (
	SkipForbiddenOrSuggestion = "forbidden_or_suggestion"
	SkipMissing               = "missing"
	SkipCancelled             = "cancelled"
)

// Deletion methods recorded per removed item.
const (
	MethodTrash  = "trash"
	MethodDelete = "delete"
)

// Deleted records one removed (or would-be removed) item.
type Deleted struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	Method string `json:"method,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// Failed records one item that could not be removed.
type Failed struct {
	Path   string `json:"path"`
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Skipped records one item the cleaner refused to touch.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result partitions the plan. Every input item lands in exactly one list.
type Result struct {
	Deleted []Deleted `json:"deleted"`
	Failed  []Failed  `json:"failed"`
	Skipped []Skipped `json:"skipped"`
	DryRun  bool      `json:"dry_run,omitempty"`
}

// FreedBytes sums the bytes of actually removed items. Dry-run entries count,
// as the result of a dry run is the preview of the real one.
func (r *Result) FreedBytes() int64 {
	var total int64
	for _, d := range r.Deleted {
		total += d.Bytes
	}
	return total
}

// Options controls one cleanup run.
type Options struct {
	// DryRun records what would be removed without touching anything.
	DryRun bool

	// AllowHardDelete permits permanent deletion when recycling fails.
	AllowHardDelete bool

	// ExtraProtected lists additional roots the cleaner refuses to touch,
	// on top of the built-in forbidden roots.
	ExtraProtected []string
}

// Cleaner executes cleanup plans. Safe to reuse across runs.
type Cleaner struct {
	opts      Options
	validator *security.PathValidator
	bus       *progress.Bus
	log       *zap.Logger
}

// New creates a cleaner. bus and log may be nil.
func New(opts Options, bus *progress.Bus, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	validator := security.NewPathValidator()
	for _, p := range opts.ExtraProtected {
		validator.AddProtectedPath(p)
	}
	return &Cleaner{
		opts:      opts,
		validator: validator,
		bus:       bus,
		log:       log,
	}
}

// Clean processes items in order. Cancellation via ctx marks the remaining
// items as skipped rather than abandoning them unaccounted for.
func (c *Cleaner) Clean(ctx context.Context, items []scanner.Item) *Result {
	result := &Result{
		Deleted: []Deleted{},
		Failed:  []Failed{},
		Skipped: []Skipped{},
		DryRun:  c.opts.DryRun,
	}

	var freed int64
	for i, item := range items {
		select {
		case <-ctx.Done():
			result.Skipped = append(result.Skipped, Skipped{Path: item.Path, Reason: SkipCancelled})
			continue
		default:
		}

		c.bus.Publish(progress.CleanEvent{
			CurrentPath: item.Path,
			Done:        i,
			Total:       len(items),
			FreedBytes:  freed,
			Timestamp:   time.Now(),
		})

		// Flags from scan time are not trusted on their own; the
		// protection check runs again against the current path.
		if item.IsSuggestionOnly || item.IsForbidden || rules.IsForbidden(item.Path) ||
			c.validator.ValidatePathForDeletion(item.Path) != nil {
			result.Skipped = append(result.Skipped, Skipped{Path: item.Path, Reason: SkipForbiddenOrSuggestion})
			continue
		}

		if _, err := os.Lstat(item.Path); os.IsNotExist(err) {
			result.Skipped = append(result.Skipped, Skipped{Path: item.Path, Reason: SkipMissing})
			continue
		}

		if c.opts.DryRun {
			result.Deleted = append(result.Deleted, Deleted{Path: item.Path, Bytes: item.SizeBytes, DryRun: true})
			freed += item.SizeBytes
			continue
		}

		if err := trash.Put(item.Path); err == nil {
			result.Deleted = append(result.Deleted, Deleted{Path: item.Path, Bytes: item.SizeBytes, Method: MethodTrash})
			freed += item.SizeBytes
			continue
		} else if !c.opts.AllowHardDelete {
			delErr := CategorizeError(item.Path, err)
			c.log.Warn("recycle failed", zap.String("path", item.Path), zap.Error(err))
			result.Failed = append(result.Failed, Failed{Path: item.Path, Error: delErr.Error(), Reason: delErr.Reason.String()})
			continue
		}

		if err := os.Remove(item.Path); err != nil {
			delErr := CategorizeError(item.Path, err)
			c.log.Warn("hard delete failed", zap.String("path", item.Path), zap.Error(err))
			result.Failed = append(result.Failed, Failed{Path: item.Path, Error: delErr.Error(), Reason: delErr.Reason.String()})
			continue
		}
		result.Deleted = append(result.Deleted, Deleted{Path: item.Path, Bytes: item.SizeBytes, Method: MethodDelete})
		freed += item.SizeBytes
	}

	c.bus.Publish(progress.CleanEvent{
		Done:       len(items),
		Total:      len(items),
		FreedBytes: freed,
		Timestamp:  time.Now(),
	})
	return result
}
