// Package rules owns the scan rule catalog and the forbidden-path authority.
// The catalog is rebuilt at every scan start because base directories are
// resolved against the current user profile, which can differ run to run.
package rules

import (
	"path/filepath"
	"strings"

	"github.com/fenilsonani/diskwise/internal/platform"
)

// Risk is the coarse tier attached to a rule. It feeds the per-item advisory
// level but is not the same scale.
type Risk string

const (
	RiskLow       Risk = "low"
	RiskMedium    Risk = "medium"
	RiskSuggest   Risk = "suggest"
	RiskForbidden Risk = "forbidden"
)

// Rule describes one named scan target: where to walk, what to include, and
// how risky its matches are by default. Catalog order encodes priority.
type Rule struct {
	Name            string
	BasePaths       []string
	IncludePatterns []string
	Risk            Risk
	Category        string
	Description     string
}

// Wildcard is the include pattern meaning "every file under the bases".
const Wildcard = "*"

// forbiddenRoots are the protected system roots. Paths under these are never
// scanned and never deleted; both layers check this list independently.
var forbiddenRoots = []string{
	`c:\windows\system32`,
	`c:\windows\winsxs`,
	`c:\program files`,
	`c:\program files (x86)`,
	`c:\system volume information`,
}

// NormalizePath lowercases a path and folds forward slashes to backslashes
// so catalog matching behaves the same regardless of the separator the
// caller used.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "/", `\`))
}

// lastSegment returns the final path component of a normalized path.
func lastSegment(norm string) string {
	if i := strings.LastIndex(norm, `\`); i >= 0 {
		return norm[i+1:]
	}
	return norm
}

// IsForbidden reports whether the path sits under a protected system root.
// The check is a case-insensitive string prefix, matching how the protected
// roots are declared.
func IsForbidden(path string) bool {
	norm := NormalizePath(path)
	for _, root := range forbiddenRoots {
		if strings.HasPrefix(norm, root) {
			return true
		}
	}
	return false
}

// ForbiddenRoots returns a copy of the protected root list for display.
func ForbiddenRoots() []string {
	out := make([]string, len(forbiddenRoots))
	copy(out, forbiddenRoots)
	return out
}

// Build returns the rule catalog for the given profile, in priority order.
func Build(info *platform.Info) []Rule {
	home := info.HomeDir
	local := info.LocalAppData
	roaming := info.RoamingAppData
	windows := info.WindowsDir

	return []Rule{
		{
			Name:            "UserTemp",
			BasePaths:       []string{filepath.Join(local, "Temp"), filepath.Join(windows, "Temp")},
			IncludePatterns: []string{Wildcard},
			Risk:            RiskLow,
			Category:        "temp",
			Description:     "常见临时文件目录",
		},
		{
			Name: "AppCaches",
			BasePaths: []string{
				local,
			},
			IncludePatterns: []string{
				"*Cache*",
				"*Code Cache*",
				"*GPUCache*",
				"*Crashpad*",
				"*Logs*",
			},
			Risk:        RiskLow,
			Category:    "cache",
			Description: "用户缓存目录",
		},
		{
			Name:            "LogsAndDumps",
			BasePaths:       []string{home, local, roaming},
			IncludePatterns: []string{"*.log", "*.dmp"},
			Risk:            RiskLow,
			Category:        "logs",
			Description:     "日志与转储文件",
		},
		{
			Name: "BrowserCaches",
			BasePaths: []string{
				filepath.Join(local, "Google", "Chrome", "User Data"),
				filepath.Join(local, "Microsoft", "Edge", "User Data"),
				filepath.Join(roaming, "Mozilla", "Firefox", "Profiles"),
			},
			IncludePatterns: []string{"*Cache*", "*Code Cache*", "*GPUCache*"},
			Risk:            RiskMedium,
			Category:        "browser_cache",
			Description:     "浏览器缓存",
		},
		{
			Name:            "WindowsUpdateCache",
			BasePaths:       []string{filepath.Join(windows, "SoftwareDistribution", "Download")},
			IncludePatterns: []string{Wildcard},
			Risk:            RiskMedium,
			Category:        "system_cache",
			Description:     "Windows 更新下载缓存",
		},
	}
}

// Match reports whether path satisfies the rule: it must sit under one of the
// rule's bases, and then either the rule is a wildcard or one of its patterns
// matches. Patterns are matched case-insensitively against the file name as
// globs, with a literal-substring fallback for patterns without
// metacharacters.
func Match(path string, rule Rule) bool {
	norm := NormalizePath(path)

	under := false
	for _, base := range rule.BasePaths {
		if strings.HasPrefix(norm, NormalizePath(base)) {
			under = true
			break
		}
	}
	if !under {
		return false
	}

	if len(rule.IncludePatterns) == 1 && rule.IncludePatterns[0] == Wildcard {
		return true
	}

	name := lastSegment(norm)
	for _, pattern := range rule.IncludePatterns {
		lowered := strings.ToLower(pattern)
		if ok, err := filepath.Match(lowered, name); err == nil && ok {
			return true
		}
		if !strings.ContainsAny(lowered, "*?[") && strings.Contains(norm, lowered) {
			return true
		}
	}
	return false
}

// MatchAny returns the first rule in catalog order that matches the path,
// or nil. First match wins; the caller must preserve catalog order.
func MatchAny(path string, catalog []Rule) *Rule {
	for i := range catalog {
		if Match(path, catalog[i]) {
			return &catalog[i]
		}
	}
	return nil
}

// SuggestionTargets returns the user document directories swept for very
// large files. These are never cleaned automatically; their hits are
// suggestion-only.
func SuggestionTargets(info *platform.Info) []string {
	return []string{
		filepath.Join(info.HomeDir, "Downloads"),
		filepath.Join(info.HomeDir, "Desktop"),
		filepath.Join(info.HomeDir, "Documents"),
	}
}
