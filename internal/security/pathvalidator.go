package security

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/diskwise/internal/rules"
)

// PathValidator is the deletion-time guard. Whatever the scan or the
// advisory decided earlier, a path must pass this check again in the moment
// before it is removed.
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a validator seeded with the forbidden roots.
func NewPathValidator() *PathValidator {
	return &PathValidator{
		protectedPaths: rules.ForbiddenRoots(),
	}
}

// ValidatePathForDeletion performs structural and policy validation on a
// path before deletion. This is the single source of truth for deletion-time
// path validation.
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is empty")
	}

	norm := rules.NormalizePath(path)

	// Windows drive-rooted or UNC only; relative paths are never deletable.
	if !isAbsolute(norm) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	// A path that changes under Clean carried . or .. segments.
	cleaned := strings.ToLower(strings.ReplaceAll(filepath.Clean(strings.ReplaceAll(norm, `\`, "/")), "/", `\`))
	if cleaned != strings.TrimRight(norm, `\`) && norm != cleaned+`\` {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	for _, char := range []string{";", "&", "|", "$", "`", "<", ">", "\n", "\r"} {
		if strings.Contains(norm, char) {
			return fmt.Errorf("path contains dangerous characters: %s", path)
		}
	}

	if err := pv.checkProtectedPaths(norm, path); err != nil {
		return err
	}
	return nil
}

func (pv *PathValidator) checkProtectedPaths(norm, original string) error {
	for _, protected := range pv.protectedPaths {
		root := rules.NormalizePath(protected)
		if norm == root || strings.HasPrefix(norm, root+`\`) {
			return fmt.Errorf("refusing to delete protected path: %s", original)
		}
	}
	return nil
}

// IsProtectedPath reports whether path sits under any protected root.
func (pv *PathValidator) IsProtectedPath(path string) bool {
	norm := rules.NormalizePath(path)
	for _, protected := range pv.protectedPaths {
		root := rules.NormalizePath(protected)
		if norm == root || strings.HasPrefix(norm, root+`\`) {
			return true
		}
	}
	return false
}

// AddProtectedPath adds a custom protected root.
func (pv *PathValidator) AddProtectedPath(path string) {
	pv.protectedPaths = append(pv.protectedPaths, path)
}

// isAbsolute accepts drive-rooted (c:\...) and UNC (\\server\share) paths,
// plus Unix-rooted paths so tests can validate real temp files.
func isAbsolute(norm string) bool {
	if len(norm) >= 3 && norm[1] == ':' && norm[2] == '\\' {
		return true
	}
	return strings.HasPrefix(norm, `\`)
}
