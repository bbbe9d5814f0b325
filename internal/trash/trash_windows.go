//go:build windows

package trash

import (
	"fmt"
	"syscall"
	"unsafe"
)

const (
	foDelete          = 0x0003
	fofAllowUndo      = 0x0040
	fofNoConfirmation = 0x0010
	fofSilent         = 0x0004
	fofNoErrorUI      = 0x0400
)

var (
	shell32          = syscall.NewLazyDLL("shell32.dll")
	shFileOperationW = shell32.NewProc("SHFileOperationW")
)

// shFileOpStructW mirrors SHFILEOPSTRUCTW for 64-bit Windows.
type shFileOpStructW struct {
	hwnd                  uintptr
	wFunc                 uint32
	pFrom                 *uint16
	pTo                   *uint16
	fFlags                uint16
	fAnyOperationsAborted int32
	hNameMappings         uintptr
	lpszProgressTitle     *uint16
}

// Put moves path into the Recycle Bin.
func Put(path string) error {
	// pFrom is a double-NUL terminated list of NUL separated paths.
	from, err := syscall.UTF16FromString(path)
	if err != nil {
		return fmt.Errorf("encode path %q: %w", path, err)
	}
	from = append(from, 0)

	op := shFileOpStructW{
		wFunc:  foDelete,
		pFrom:  &from[0],
		fFlags: fofAllowUndo | fofNoConfirmation | fofSilent | fofNoErrorUI,
	}
	// The returned error is always non-nil for LazyProc.Call; the uintptr
	// result is the real status.
	ret, _, _ := shFileOperationW.Call(uintptr(unsafe.Pointer(&op)))
	if ret != 0 {
		return fmt.Errorf("recycle %q: SHFileOperationW returned %d", path, ret)
	}
	if op.fAnyOperationsAborted != 0 {
		return fmt.Errorf("recycle %q: operation aborted", path)
	}
	return nil
}
