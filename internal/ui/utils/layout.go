package utils

import (
	"fmt"
	"strings"

	"github.com/fenilsonani/diskwise/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 80
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 24
)

// TruncatePath shortens a Windows path to fit within maxWidth, keeping the
// drive and the trailing segments and eliding the middle.
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}

	if maxWidth < 10 {
		return "..."
	}

	parts := strings.Split(path, `\`)
	if len(parts) <= 2 {
		return "..." + path[len(path)-(maxWidth-3):]
	}

	file := parts[len(parts)-1]
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	// Grow the tail one segment at a time while it still fits after the
	// drive prefix and the ellipsis.
	head := parts[0] // drive or masking prefix
	tail := file
	for i := len(parts) - 2; i > 0; i-- {
		candidate := parts[i] + `\` + tail
		if len(head)+5+len(candidate) > maxWidth {
			break
		}
		tail = candidate
	}

	shortened := head + `\...\` + tail
	if len(shortened) <= maxWidth {
		return shortened
	}
	return `...\` + tail
}

// CalculatePageSize calculates the number of items that can fit on a page
// given the terminal height and reserved space for headers/footers
func CalculatePageSize(terminalHeight int) int {
	// Reserve space for:
	// - Title (2 lines)
	// - Header/instructions (2-3 lines)
	// - Footer/help (2-3 lines)
	// - Status/summary (2-3 lines)
	const reservedLines = 10

	pageSize := terminalHeight - reservedLines
	if pageSize < 5 {
		pageSize = 5 // Minimum page size
	}

	return pageSize
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small
func GetSizeWarningBanner(width, height int) string {
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := "⚠️  Terminal too small! Recommended: 80x24 or larger"
	if width > 0 && height > 0 {
		warning += styles.DimStyle.Render(" (current: ") +
			styles.WarningStyle.Render(fmt.Sprintf("%dx%d", width, height)) +
			styles.DimStyle.Render(")")
	}

	return styles.WarningStyle.Render(warning) + "\n\n"
}

// TruncateString truncates a string to maxLen, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

// TruncateMiddle truncates a string from the middle, preserving start and end
func TruncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen < 10 {
		return TruncateString(s, maxLen)
	}

	// Show equal parts from start and end
	sideLen := (maxLen - 3) / 2
	return s[:sideLen] + "..." + s[len(s)-sideLen:]
}
