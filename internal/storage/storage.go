// Package storage owns the runtime documents: every scan, analysis, advisory
// exchange, and cleanup run leaves a JSON document behind, so any state can
// be inspected or diffed after the fact. Documents are read fully and
// rewritten wholesale; there is no partial update.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Runtime document file names.
const (
	ScanCacheFile     = "scan_cache.json"
	AnalysisStatsFile = "analysis_stats.json"
	PayloadFile       = "analysis_payload.json"
	AdviceFile        = "ai_advice.json"
	ReportFile        = "ai_report.json"
	CleanupPlanFile   = "cleanup_plan.json"
	CleanupResultFile = "cleanup_result.json"
	SettingsFile      = "settings.json"
	AICacheFile       = "ai_cache.json"
)

// Settings is the advisory and cleanup configuration document.
type Settings struct {
	BaseURL              string `json:"base_url"`
	APIKey               string `json:"api_key"`
	Model                string `json:"model"`
	MaskPaths            bool   `json:"mask_paths"`
	CacheEnabled         bool   `json:"cache_enabled"`
	AllowL2              bool   `json:"allow_l2"`
	LargeFileThresholdMB int64  `json:"large_file_threshold_mb"`
}

// DefaultSettings returns the settings used until the user changes them.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:              "https://api.openai.com",
		APIKey:               "",
		Model:                "gpt-4o-mini",
		MaskPaths:            true,
		CacheEnabled:         true,
		AllowL2:              false,
		LargeFileThresholdMB: 500,
	}
}

// Store reads and writes runtime documents under one directory.
type Store struct {
	dir string
}

// NewStore creates the runtime directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create runtime dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the runtime directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of a runtime document.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load reads a document into out. A missing or unreadable document leaves
// out untouched and reports found=false; callers fall back to their default.
func (s *Store) Load(name string, out interface{}) (found bool, err error) {
	data, err := os.ReadFile(s.Path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// Save rewrites a document wholesale, pretty-printed for hand inspection.
func (s *Store) Save(name string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// LoadSettings reads settings.json, filling defaults for a missing document
// and for blank fields a hand edit may have emptied.
func (s *Store) LoadSettings() (Settings, error) {
	settings := DefaultSettings()
	found, err := s.Load(SettingsFile, &settings)
	if err != nil {
		return DefaultSettings(), err
	}
	if !found {
		return settings, nil
	}
	defaults := DefaultSettings()
	if settings.BaseURL == "" {
		settings.BaseURL = defaults.BaseURL
	}
	if settings.Model == "" {
		settings.Model = defaults.Model
	}
	if settings.LargeFileThresholdMB <= 0 {
		settings.LargeFileThresholdMB = defaults.LargeFileThresholdMB
	}
	return settings, nil
}

// SaveSettings rewrites settings.json.
func (s *Store) SaveSettings(settings Settings) error {
	return s.Save(SettingsFile, settings)
}
