package cleaner

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError represents a detailed deletion error
type DeletionError struct {
	Path     string
	Reason   ErrorReason
	Original error
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	if os.IsNotExist(err) {
		delErr.Reason = ErrorFileNotFound
		return delErr
	}

	if os.IsPermission(err) {
		delErr.Reason = ErrorPermissionDenied
		return delErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY:
			delErr.Reason = ErrorFileInUse
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EISDIR:
			delErr.Reason = ErrorIsDirectory
		}
		return delErr
	}

	return delErr
}

// GroupFailures groups failed entries by their recorded reason
func GroupFailures(failed []Failed) map[string][]Failed {
	grouped := make(map[string][]Failed)
	for _, f := range failed {
		grouped[f.Reason] = append(grouped[f.Reason], f)
	}
	return grouped
}

// FormatFailureSummary creates a user-friendly summary of a run's failures
func FormatFailureSummary(failed []Failed) string {
	if len(failed) == 0 {
		return ""
	}

	grouped := GroupFailures(failed)
	summary := "\n⚠️  Issues encountered:\n"

	if perms, ok := grouped[ErrorPermissionDenied.String()]; ok {
		summary += fmt.Sprintf("   ├─ Permission denied: %d files\n", len(perms))
		summary += "   │  └─ Tip: Run from an elevated prompt\n"
	}
	if busy, ok := grouped[ErrorFileInUse.String()]; ok {
		summary += fmt.Sprintf("   ├─ File in use: %d files\n", len(busy))
		summary += "   │  └─ Tip: Close applications and retry\n"
	}
	if notFound, ok := grouped[ErrorFileNotFound.String()]; ok {
		summary += fmt.Sprintf("   ├─ Already deleted: %d files\n", len(notFound))
	}
	if dirs, ok := grouped[ErrorIsDirectory.String()]; ok {
		summary += fmt.Sprintf("   ├─ Directories: %d items\n", len(dirs))
	}
	if unknown, ok := grouped[ErrorUnknown.String()]; ok {
		summary += fmt.Sprintf("   └─ Other errors: %d files\n", len(unknown))
	}

	return summary
}
