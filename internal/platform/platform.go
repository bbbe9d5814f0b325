// Package platform resolves the user-profile and system directories the rule
// catalog is built against. Resolution prefers the Windows environment
// variables and falls back to fixed well-known locations, so a scan on a
// stripped-down environment (service accounts, CI) still gets usable paths.
package platform

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v4/disk"
)

// Info contains the resolved directories for the current user and system.
type Info struct {
	OS             string
	HomeDir        string
	LocalAppData   string
	RoamingAppData string
	WindowsDir     string
	SystemDrive    string
}

// GetInfo resolves platform information for the current process.
func GetInfo() (*Info, error) {
	home := os.Getenv("USERPROFILE")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, err
		}
	}

	info := &Info{
		OS:             runtime.GOOS,
		HomeDir:        home,
		LocalAppData:   localAppData(home),
		RoamingAppData: roamingAppData(home),
		WindowsDir:     winDir(),
		SystemDrive:    systemDrive(),
	}
	return info, nil
}

// localAppData returns %LOCALAPPDATA%, or the conventional location under
// the profile when the variable is not set.
func localAppData(home string) string {
	if p := os.Getenv("LOCALAPPDATA"); p != "" {
		return p
	}
	return filepath.Join(home, "AppData", "Local")
}

// roamingAppData returns %APPDATA% with the same fallback policy.
func roamingAppData(home string) string {
	if p := os.Getenv("APPDATA"); p != "" {
		return p
	}
	return filepath.Join(home, "AppData", "Roaming")
}

// winDir returns the Windows directory (e.g. C:\Windows).
// Falls back to C:\Windows only if %WINDIR% is not set.
func winDir() string {
	if w := os.Getenv("WINDIR"); w != "" {
		return w
	}
	return `C:\Windows`
}

// systemDrive returns the system drive with a trailing separator (e.g. C:\).
// Falls back to C:\ only if %SYSTEMDRIVE% is not set.
func systemDrive() string {
	if d := os.Getenv("SYSTEMDRIVE"); d != "" {
		return d + `\`
	}
	return `C:\`
}

// DiskUsage is a point-in-time usage snapshot of one mounted volume.
type DiskUsage struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// GetDiskUsage reports usage for the volume containing path.
func GetDiskUsage(path string) (*DiskUsage, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return nil, err
	}
	return &DiskUsage{
		Path:        stat.Path,
		TotalBytes:  stat.Total,
		FreeBytes:   stat.Free,
		UsedBytes:   stat.Used,
		UsedPercent: stat.UsedPercent,
	}, nil
}
