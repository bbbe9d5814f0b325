// Package session orchestrates the scan, advise, clean pipeline. It owns the
// in-memory snapshot of the latest scan, persists every stage as a runtime
// document, and serializes the long-running operations so two scans (or a
// scan and a cleanup) never interleave.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/advisory"
	"github.com/fenilsonani/diskwise/internal/analyzer"
	"github.com/fenilsonani/diskwise/internal/cleaner"
	"github.com/fenilsonani/diskwise/internal/config"
	"github.com/fenilsonani/diskwise/internal/payload"
	"github.com/fenilsonani/diskwise/internal/platform"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/rules"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/storage"
)

var (
	// ErrBusy is returned when an operation of the same kind is running.
	ErrBusy = errors.New("another operation is already running")

	// ErrNoScan is returned when an operation needs scan results and none
	// exist yet.
	ErrNoScan = errors.New("no scan results available, run a scan first")
)

// operation kinds for single-flight tracking.
type opKind int

const (
	opScan opKind = iota
	opAdvise
	opClean
)

// scanDocument is the persisted shape of a scan snapshot.
type scanDocument struct {
	Items     []scanner.Item `json:"items"`
	Skipped   []string       `json:"skipped"`
	Stopped   bool           `json:"stopped"`
	Duration  int64          `json:"duration_ms"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session ties the pipeline together. Safe for concurrent use; the heavy
// operations are single-flight per kind.
type Session struct {
	cfg   *config.Config
	store *storage.Store
	info  *platform.Info
	bus   *progress.Bus
	log   *zap.Logger

	mu       sync.Mutex
	running  map[opKind]bool
	items    []scanner.Item
	stats    *analyzer.Stats
	advice   *advisor.Result
	settings storage.Settings
}

// New builds a session. The runtime store is created under the config's
// runtime directory, and persisted settings are loaded immediately.
func New(cfg *config.Config, bus *progress.Bus, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	runtimeDir, err := cfg.GetRuntimeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve runtime dir: %w", err)
	}
	store, err := storage.NewStore(runtimeDir)
	if err != nil {
		return nil, err
	}
	settings, err := store.LoadSettings()
	if err != nil {
		log.Warn("settings unreadable, using defaults", zap.Error(err))
		settings = storage.DefaultSettings()
	}
	info, err := platform.GetInfo()
	if err != nil {
		return nil, fmt.Errorf("resolve platform info: %w", err)
	}

	s := &Session{
		cfg:      cfg,
		store:    store,
		info:     info,
		bus:      bus,
		log:      log,
		running:  make(map[opKind]bool),
		settings: settings,
	}
	s.restore()
	return s, nil
}

// restore reloads the previous scan snapshot so advise and clean work across
// process restarts.
func (s *Session) restore() {
	var doc scanDocument
	if found, err := s.store.Load(storage.ScanCacheFile, &doc); err == nil && found {
		s.items = doc.Items
	}
	var stats analyzer.Stats
	if found, err := s.store.Load(storage.AnalysisStatsFile, &stats); err == nil && found {
		s.stats = &stats
	}
	var result advisor.Result
	if found, err := s.store.Load(storage.AdviceFile, &result); err == nil && found {
		s.advice = &result
	}
}

func (s *Session) begin(kind opKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[kind] {
		return ErrBusy
	}
	s.running[kind] = true
	return nil
}

func (s *Session) end(kind opKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[kind] = false
}

// Store exposes the runtime document store.
func (s *Session) Store() *storage.Store {
	return s.store
}

// Platform returns the scan profile in use.
func (s *Session) Platform() *platform.Info {
	return s.info
}

// Settings returns the current settings snapshot.
func (s *Session) Settings() storage.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings persists new settings and applies them to later operations.
func (s *Session) UpdateSettings(settings storage.Settings) error {
	if err := s.store.SaveSettings(settings); err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the current scan snapshot.
func (s *Session) Items() []scanner.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]scanner.Item, len(s.items))
	copy(items, s.items)
	return items
}

// Stats returns the current analysis stats, or nil before the first scan.
func (s *Session) Stats() *analyzer.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Advice returns the latest advisory result, or nil.
func (s *Session) Advice() *advisor.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice
}

// Scan walks the rule catalog, aggregates stats, and persists both. A
// previous advisory result is dropped: it described a scan that no longer
// exists.
func (s *Session) Scan(ctx context.Context) (*scanner.Result, error) {
	if err := s.begin(opScan); err != nil {
		return nil, err
	}
	defer s.end(opScan)

	settings := s.Settings()
	opts := scanner.Options{
		Catalog:            rules.Build(s.info),
		SuggestionTargets:  rules.SuggestionTargets(s.info),
		RecentWindow:       time.Duration(s.cfg.RecentWindowHours) * time.Hour,
		LargeFileThreshold: settings.LargeFileThresholdMB << 20,
		ProgressInterval:   time.Duration(s.cfg.ProgressIntervalMS) * time.Millisecond,
	}
	result := scanner.New(opts, s.bus, s.log).Scan(ctx)
	stats := analyzer.BuildStats(result.Items)

	s.mu.Lock()
	s.items = result.Items
	s.stats = stats
	s.advice = nil
	s.mu.Unlock()

	doc := scanDocument{
		Items:     result.Items,
		Skipped:   result.Skipped,
		Stopped:   result.Stopped,
		Duration:  result.Duration.Milliseconds(),
		CreatedAt: time.Now(),
	}
	if err := s.store.Save(storage.ScanCacheFile, doc); err != nil {
		s.log.Warn("persist scan cache", zap.Error(err))
	}
	if err := s.store.Save(storage.AnalysisStatsFile, stats); err != nil {
		s.log.Warn("persist analysis stats", zap.Error(err))
	}

	s.log.Info("scan finished",
		zap.Int("items", len(result.Items)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Bool("stopped", result.Stopped),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// Advise rates the current scan. The local rating always happens; when an
// API key is configured the advisory service is asked for a second opinion
// and its response reconciled in. A remote failure degrades to the local
// result instead of failing the operation.
func (s *Session) Advise(ctx context.Context) (*advisor.Result, error) {
	if err := s.begin(opAdvise); err != nil {
		return nil, err
	}
	defer s.end(opAdvise)

	items := s.Items()
	if len(items) == 0 {
		return nil, ErrNoScan
	}
	stats := s.Stats()
	settings := s.Settings()

	result := advisor.Derive(items, stats)

	if settings.APIKey != "" {
		doc := s.buildPayload(items, stats, settings)
		if err := s.store.Save(storage.PayloadFile, doc); err != nil {
			s.log.Warn("persist advisory payload", zap.Error(err))
		}

		client := advisory.NewClient(advisory.Config{
			BaseURL:      settings.BaseURL,
			APIKey:       settings.APIKey,
			Model:        settings.Model,
			CacheEnabled: settings.CacheEnabled,
			CachePath:    s.store.Path(storage.AICacheFile),
		}, s.bus, s.log)

		remote, err := client.Request(ctx, doc)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			s.log.Warn("advisory service unavailable, keeping local rating", zap.Error(err))
		} else {
			result = advisor.Merge(result, remote)
		}
	}

	s.mu.Lock()
	s.advice = result
	s.mu.Unlock()

	if err := s.store.Save(storage.AdviceFile, result); err != nil {
		s.log.Warn("persist advice", zap.Error(err))
	}
	if err := s.store.Save(storage.ReportFile, result.Report); err != nil {
		s.log.Warn("persist report", zap.Error(err))
	}
	return result, nil
}

func (s *Session) buildPayload(items []scanner.Item, stats *analyzer.Stats, settings storage.Settings) *payload.Payload {
	allowAuto := "L1"
	if settings.AllowL2 {
		allowAuto = "L2"
	}
	intent := payload.UserIntent{
		Mode:           "balanced",
		AllowAutoLevel: allowAuto,
		Thresholds:     payload.Thresholds{LargeFileMB: settings.LargeFileThresholdMB},
	}
	return payload.NewBuilder(settings.MaskPaths, 0).Build(items, stats, intent)
}

// SelectAutoClean picks the items safe for unattended cleanup: at or below
// the allowed automation level, never confirmation-gated, never suggestion
// entries. Items are resolved back to the scan snapshot by id.
func (s *Session) SelectAutoClean() []scanner.Item {
	s.mu.Lock()
	advice := s.advice
	items := s.items
	allowL2 := s.settings.AllowL2
	s.mu.Unlock()

	if advice == nil {
		return nil
	}
	maxLevel := "L1"
	if allowL2 {
		maxLevel = "L2"
	}

	var selected []scanner.Item
	for _, rec := range advice.Advice.Items {
		if rec.RequiresConfirmation {
			continue
		}
		if rec.Level != "L1" && rec.Level != maxLevel {
			continue
		}
		if rec.ItemID < 0 || rec.ItemID >= len(items) {
			continue
		}
		item := items[rec.ItemID]
		if item.IsSuggestionOnly || item.IsForbidden {
			continue
		}
		selected = append(selected, item)
	}
	return selected
}

// Clean executes a cleanup plan, persisting the plan before touching
// anything and the result after.
func (s *Session) Clean(ctx context.Context, plan []scanner.Item, opts cleaner.Options) (*cleaner.Result, error) {
	if err := s.begin(opClean); err != nil {
		return nil, err
	}
	defer s.end(opClean)

	if err := s.store.Save(storage.CleanupPlanFile, plan); err != nil {
		s.log.Warn("persist cleanup plan", zap.Error(err))
	}

	opts.ExtraProtected = append(opts.ExtraProtected, s.cfg.ExtraProtectedPaths...)
	result := cleaner.New(opts, s.bus, s.log).Clean(ctx, plan)

	if err := s.store.Save(storage.CleanupResultFile, result); err != nil {
		s.log.Warn("persist cleanup result", zap.Error(err))
	}
	s.log.Info("cleanup finished",
		zap.Int("deleted", len(result.Deleted)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int64("freed_bytes", result.FreedBytes()),
		zap.Bool("dry_run", opts.DryRun))
	return result, nil
}

// NewAdvisoryClient builds a client from the current settings, for model
// listing and connectivity checks.
func (s *Session) NewAdvisoryClient() *advisory.Client {
	settings := s.Settings()
	return advisory.NewClient(advisory.Config{
		BaseURL:      settings.BaseURL,
		APIKey:       settings.APIKey,
		Model:        settings.Model,
		CacheEnabled: settings.CacheEnabled,
		CachePath:    s.store.Path(storage.AICacheFile),
	}, s.bus, s.log)
}

// DiskUsage reports usage of the scanned volume.
func (s *Session) DiskUsage() (*platform.DiskUsage, error) {
	return platform.GetDiskUsage(s.info.SystemDrive)
}
