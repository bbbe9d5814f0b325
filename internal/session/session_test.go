package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/diskwise/internal/cleaner"
	"github.com/fenilsonani/diskwise/internal/config"
	"github.com/fenilsonani/diskwise/internal/storage"
	"github.com/fenilsonani/diskwise/internal/testutil"
	"github.com/fenilsonani/diskwise/internal/trash"
)

func newSession(t *testing.T) (*Session, *testutil.Fixture) {
	t.Helper()
	fx := testutil.NewFixture(t)
	info := fx.PlatformInfo()

	t.Setenv("USERPROFILE", info.HomeDir)
	t.Setenv("LOCALAPPDATA", info.LocalAppData)
	t.Setenv("APPDATA", info.RoamingAppData)
	t.Setenv("WINDIR", info.WindowsDir)
	t.Setenv("SYSTEMDRIVE", fx.RootDir)

	cfg := config.GetDefault()
	cfg.RuntimeDir = filepath.Join(t.TempDir(), "runtime")

	s, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s, fx
}

// ============================================================================
// Scan
// ============================================================================

func TestScanPersistsSnapshot(t *testing.T) {
	s, fx := newSession(t)
	fx.CreateTempFile("junk.tmp", 512)

	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Items) == 0 {
		t.Fatal("scan found nothing")
	}
	if len(s.Items()) != len(result.Items) {
		t.Errorf("snapshot holds %d items, result %d", len(s.Items()), len(result.Items))
	}
	if s.Stats() == nil {
		t.Error("stats not built")
	}

	for _, name := range []string{storage.ScanCacheFile, storage.AnalysisStatsFile} {
		if !testutil.FileExists(s.Store().Path(name)) {
			t.Errorf("%s not persisted", name)
		}
	}
}

func TestScanDropsStaleAdvice(t *testing.T) {
	s, fx := newSession(t)
	fx.CreateTempFile("junk.tmp", 512)

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Advise(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Advice() == nil {
		t.Fatal("advice missing after Advise")
	}

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Advice() != nil {
		t.Error("stale advice survived a rescan")
	}
}

func TestRestoreAcrossSessions(t *testing.T) {
	s, fx := newSession(t)
	fx.CreateTempFile("junk.tmp", 512)

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := len(s.Items())

	// A fresh session over the same runtime dir sees the previous scan.
	restored, err := New(s.cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(restored.Items()); got != want {
		t.Errorf("restored %d items, want %d", got, want)
	}
}

// ============================================================================
// Advise
// ============================================================================

func TestAdviseWithoutScan(t *testing.T) {
	s, _ := newSession(t)

	if _, err := s.Advise(context.Background()); !errors.Is(err, ErrNoScan) {
		t.Errorf("err = %v, want ErrNoScan", err)
	}
}

func TestAdviseLocalOnly(t *testing.T) {
	s, fx := newSession(t)
	fx.CreateTempFile("junk.tmp", 512)

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := s.Advise(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Advice.Items) == 0 {
		t.Error("advice rated nothing")
	}
	if result.Advice.Summary.RemoteAppliedItems != 0 {
		t.Error("no API key configured but remote items applied")
	}

	for _, name := range []string{storage.AdviceFile, storage.ReportFile} {
		if !testutil.FileExists(s.Store().Path(name)) {
			t.Errorf("%s not persisted", name)
		}
	}
	// No key means no payload document either.
	if testutil.FileExists(s.Store().Path(storage.PayloadFile)) {
		t.Error("payload persisted without an advisory request")
	}
}

func TestAdviseMergesRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"advice\":{\"diagnosis\":{\"summary\":\"远端摘要\"},\"items\":[{\"item_id\":0,\"level\":\"L2\"}]}}"}}]}`)
	}))
	defer server.Close()

	s, fx := newSession(t)
	fx.CreateTempFile("junk.tmp", 512)

	settings := s.Settings()
	settings.BaseURL = server.URL
	settings.APIKey = "sk-test"
	if err := s.UpdateSettings(settings); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := s.Advise(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Advice.Summary.RemoteAppliedItems != 1 {
		t.Errorf("remote_applied_items = %d, want 1", result.Advice.Summary.RemoteAppliedItems)
	}
	if result.Advice.Diagnosis.Summary != "远端摘要" {
		t.Errorf("summary = %q", result.Advice.Diagnosis.Summary)
	}
	if !testutil.FileExists(s.Store().Path(storage.PayloadFile)) {
		t.Error("payload document not persisted")
	}
}

func TestAdviseFallsBackWhenRemoteFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusInternalServerError)
	}))
	defer server.Close()

	s, fx := newSession(t)
	fx.CreateTempFile("junk.tmp", 512)

	settings := s.Settings()
	settings.BaseURL = server.URL
	settings.APIKey = "sk-test"
	if err := s.UpdateSettings(settings); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := s.Advise(context.Background())
	if err != nil {
		t.Fatalf("remote failure must not fail the operation: %v", err)
	}
	if len(result.Advice.Items) == 0 {
		t.Error("local fallback rated nothing")
	}
	if result.Advice.Summary.RemoteAppliedItems != 0 {
		t.Error("failed remote reported applied items")
	}
}

// ============================================================================
// Auto-clean selection
// ============================================================================

func TestSelectAutoCleanDefaultsToL1(t *testing.T) {
	s, fx := newSession(t)
	fx.CreateTempFile("stale.tmp", 512)

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Advise(context.Background()); err != nil {
		t.Fatal(err)
	}

	selected := s.SelectAutoClean()
	for _, item := range selected {
		if item.IsSuggestionOnly || item.IsForbidden {
			t.Errorf("unsafe item selected: %+v", item)
		}
	}
	// Stale temp files rate L1, so the selection is non-empty.
	if len(selected) == 0 {
		t.Error("no items selected for auto clean")
	}

	advice := s.Advice()
	allowed := map[string]bool{"L1": true}
	for _, rec := range advice.Advice.Items {
		if rec.Level != "L1" {
			allowed[rec.Level] = false
		}
	}
	for _, item := range selected {
		for _, rec := range advice.Advice.Items {
			if rec.Target == item.Path && rec.Level != "L1" {
				t.Errorf("item %s has level %s, only L1 allowed by default", item.Path, rec.Level)
			}
		}
	}
}

func TestSelectAutoCleanWithoutAdvice(t *testing.T) {
	s, _ := newSession(t)
	if got := s.SelectAutoClean(); got != nil {
		t.Errorf("selection without advice = %v", got)
	}
}

// ============================================================================
// Clean
// ============================================================================

func TestCleanPersistsPlanAndResult(t *testing.T) {
	t.Setenv(trash.TrashDirEnv, t.TempDir())
	s, fx := newSession(t)
	path := fx.CreateTempFile("stale.tmp", 512)

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}

	plan := s.Items()
	result, err := s.Clean(context.Background(), plan, cleaner.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Deleted) == 0 {
		t.Errorf("nothing deleted: %+v", result)
	}
	if testutil.FileExists(path) {
		t.Error("planned file still exists")
	}

	for _, name := range []string{storage.CleanupPlanFile, storage.CleanupResultFile} {
		if !testutil.FileExists(s.Store().Path(name)) {
			t.Errorf("%s not persisted", name)
		}
	}
}

// ============================================================================
// Single flight
// ============================================================================

func TestBeginRejectsSameKind(t *testing.T) {
	s, _ := newSession(t)

	if err := s.begin(opScan); err != nil {
		t.Fatal(err)
	}
	if err := s.begin(opScan); !errors.Is(err, ErrBusy) {
		t.Errorf("second begin = %v, want ErrBusy", err)
	}
	// Different kinds do not block each other.
	if err := s.begin(opAdvise); err != nil {
		t.Errorf("other kind blocked: %v", err)
	}
	s.end(opScan)
	if err := s.begin(opScan); err != nil {
		t.Errorf("begin after end = %v", err)
	}
}

// ============================================================================
// Settings
// ============================================================================

func TestUpdateSettingsPersists(t *testing.T) {
	s, _ := newSession(t)

	settings := s.Settings()
	settings.AllowL2 = true
	settings.Model = "gpt-4o"
	if err := s.UpdateSettings(settings); err != nil {
		t.Fatal(err)
	}

	restored, err := New(s.cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := restored.Settings()
	if !got.AllowL2 || got.Model != "gpt-4o" {
		t.Errorf("settings not persisted: %+v", got)
	}
}

// ============================================================================
// Protection
// ============================================================================

func TestCleanHonorsExtraProtectedPaths(t *testing.T) {
	t.Setenv(trash.TrashDirEnv, t.TempDir())
	s, fx := newSession(t)
	path := fx.CreateTempFile("keep.tmp", 256)
	s.cfg.ExtraProtectedPaths = []string{fx.UserTemp}

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}

	result, err := s.Clean(context.Background(), s.Items(), cleaner.Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Deleted) != 0 {
		t.Errorf("dry run planned deletions under a protected root: %+v", result.Deleted)
	}
	for _, sk := range result.Skipped {
		if sk.Reason != cleaner.SkipForbiddenOrSuggestion {
			t.Errorf("reason = %q, want %q", sk.Reason, cleaner.SkipForbiddenOrSuggestion)
		}
	}
	if !testutil.FileExists(path) {
		t.Error("protected file was removed")
	}
}
