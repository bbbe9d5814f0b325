package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// Shortcut is one key binding shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the single-line footer shown under each view: view name and
// selection totals on the left, key bindings on the right.
type StatusBar struct {
	viewName  string
	selected  int
	total     int
	size      int64
	shortcuts []Shortcut
}

// NewStatusBar creates a new status bar
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetView sets the current view name
func (s *StatusBar) SetView(viewName string) {
	s.viewName = viewName
}

// SetSelection sets the selection count, total, and size
func (s *StatusBar) SetSelection(selected, total int, size int64) {
	s.selected = selected
	s.total = total
	s.size = size
}

// SetShortcuts sets the shortcuts to display, in order.
func (s *StatusBar) SetShortcuts(shortcuts []Shortcut) {
	s.shortcuts = shortcuts
}

// Render renders the status bar with the given width
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string

	if s.viewName != "" {
		parts = append(parts, styles.BoldStyle.Render(s.viewName))
	}

	if s.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d selected", s.selected, s.total))
	}

	if s.size > 0 {
		parts = append(parts, styles.FileSizeStyle.Render(utils.FormatBytes(s.size)))
	}

	leftSide := strings.Join(parts, " • ")

	var shortcutParts []string
	for _, sc := range s.shortcuts {
		shortcutParts = append(shortcutParts, fmt.Sprintf("%s:%s",
			styles.DimStyle.Render(sc.Key), sc.Desc))
	}
	rightSide := strings.Join(shortcutParts, " ")

	// Calculate spacing
	leftLen := lipgloss.Width(leftSide)
	rightLen := lipgloss.Width(rightSide)
	spacing := width - leftLen - rightLen - 2 // -2 for padding

	if spacing < 1 {
		// Not enough space, truncate right side
		maxRightLen := width - leftLen - 5
		if maxRightLen > 3 && rightLen > maxRightLen {
			rightSide = rightSide[:maxRightLen-3] + "..."
		}
		spacing = 1
	}

	statusLine := leftSide + strings.Repeat(" ", spacing) + rightSide

	statusBarStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.BgDark).
		Padding(0, 1).
		Width(width)

	return statusBarStyle.Render(statusLine)
}

// RenderSimple renders a simple status bar with just a message
func RenderSimple(message string, width int) string {
	if width <= 0 {
		width = 80
	}

	statusBarStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.BgDark).
		Padding(0, 1).
		Width(width)

	return statusBarStyle.Render(message)
}
