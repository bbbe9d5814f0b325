// Package testutil provides test fixtures shaped like a Windows user
// profile. All files live under t.TempDir() so tests are isolated and
// self-cleaning.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/diskwise/internal/platform"
)

// Fixture holds a synthetic user profile rooted in a temp directory.
type Fixture struct {
	T       *testing.T
	RootDir string

	HomeDir      string
	LocalAppData string
	Roaming      string
	UserTemp     string
	Downloads    string
	Desktop      string
	Documents    string
}

// NewFixture builds the standard profile directory layout.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	root := t.TempDir()
	home := filepath.Join(root, "Users", "demo")

	f := &Fixture{
		T:            t,
		RootDir:      root,
		HomeDir:      home,
		LocalAppData: filepath.Join(home, "AppData", "Local"),
		Roaming:      filepath.Join(home, "AppData", "Roaming"),
		UserTemp:     filepath.Join(home, "AppData", "Local", "Temp"),
		Downloads:    filepath.Join(home, "Downloads"),
		Desktop:      filepath.Join(home, "Desktop"),
		Documents:    filepath.Join(home, "Documents"),
	}

	for _, dir := range []string{f.UserTemp, f.Roaming, f.Downloads, f.Desktop, f.Documents} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	return f
}

// PlatformInfo returns a platform.Info pointing at the fixture profile, so
// rule catalogs resolve against the temp tree instead of the real machine.
func (f *Fixture) PlatformInfo() *platform.Info {
	return &platform.Info{
		OS:             "test",
		HomeDir:        f.HomeDir,
		LocalAppData:   f.LocalAppData,
		RoamingAppData: f.Roaming,
		WindowsDir:     filepath.Join(f.RootDir, "Windows"),
		SystemDrive:    f.RootDir,
	}
}

// CreateFile creates a file under the fixture root and returns its absolute
// path.
func (f *Fixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		f.T.Fatalf("failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}
	return fullPath
}

// CreateFileWithAge creates a file whose modification time is age in the
// past.
func (f *Fixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	old := time.Now().Add(-age)
	if err := os.Chtimes(fullPath, old, old); err != nil {
		f.T.Fatalf("failed to age file %s: %v", fullPath, err)
	}
	return fullPath
}

// CreateTempFile creates a stale file inside the user temp directory.
func (f *Fixture) CreateTempFile(name string, size int) string {
	f.T.Helper()
	rel, err := filepath.Rel(f.RootDir, filepath.Join(f.UserTemp, name))
	if err != nil {
		f.T.Fatalf("rel: %v", err)
	}
	return f.CreateFileWithAge(rel, make([]byte, size), 48*time.Hour)
}

// CreateSparseLargeFile creates a file whose size is at least size bytes
// without writing that many bytes, via truncate.
func (f *Fixture) CreateSparseLargeFile(relPath string, size int64) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		f.T.Fatalf("failed to create directory for %s: %v", fullPath, err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		f.T.Fatalf("failed to truncate %s: %v", fullPath, err)
	}
	if err := file.Close(); err != nil {
		f.T.Fatalf("failed to close %s: %v", fullPath, err)
	}
	// Age it so the recency escalation does not apply in tests that only
	// care about size.
	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(fullPath, old, old); err != nil {
		f.T.Fatalf("failed to age file %s: %v", fullPath, err)
	}
	return fullPath
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
