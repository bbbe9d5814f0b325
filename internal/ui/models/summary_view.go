package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/diskwise/internal/cleaner"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	result *cleaner.Result
	err    error
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(result *cleaner.Result, err error) *SummaryViewModel {
	return &SummaryViewModel{
		result: result,
		err:    err,
	}
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Cleanup Summary"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Cleanup failed: " + m.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("Press q or enter to exit"))
		return b.String()
	}

	if m.result != nil {
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Successfully deleted %d files",
			len(m.result.Deleted))))
		b.WriteString("\n")

		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Space freed: %s",
			utils.FormatBytes(m.result.FreedBytes()))))
		b.WriteString("\n\n")

		if len(m.result.Skipped) > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("⚠ Skipped %d files",
				len(m.result.Skipped))))
			b.WriteString("\n")
		}

		if len(m.result.Failed) > 0 {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d failures",
				len(m.result.Failed))))
			b.WriteString("\n")
			for i, failure := range m.result.Failed {
				if i >= 5 {
					b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  … and %d more\n", len(m.result.Failed)-5)))
					break
				}
				b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  %s: %s\n", failure.Path, failure.Error)))
			}
		}

		if m.result.DryRun {
			b.WriteString("\n")
			b.WriteString(styles.InfoStyle.Render("Note: This was a dry run. No files were actually deleted."))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press q or enter to exit"))

	return b.String()
}
