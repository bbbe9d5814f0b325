package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/diskwise/internal/cleaner"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/session"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	uiutils "github.com/fenilsonani/diskwise/internal/ui/utils"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// CleanupViewModel handles the cleanup progress view
type CleanupViewModel struct {
	session *session.Session
	items   []scanner.Item
	opts    cleaner.Options

	spinner   spinner.Model
	progress  progress.Model
	startTime time.Time

	current     int
	currentPath string
	freedBytes  int64
	result      *cleaner.Result
	done        bool
}

// NewCleanupViewModel creates a new cleanup view model
func NewCleanupViewModel(sess *session.Session, items []scanner.Item, opts cleaner.Options) *CleanupViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	p := progress.New(progress.WithDefaultGradient())

	return &CleanupViewModel{
		session:   sess,
		items:     items,
		opts:      opts,
		spinner:   s,
		progress:  p,
		startTime: time.Now(),
	}
}

// Init initializes the cleanup view
func (m *CleanupViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.performCleanup,
	)
}

// Update handles messages
func (m *CleanupViewModel) Update(msg tea.Msg) (*CleanupViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CleanProgressMsg:
		m.current = msg.Done
		m.currentPath = msg.CurrentPath
		m.freedBytes = msg.FreedBytes
		return m, nil

	case CleanupCompleteMsg:
		m.done = true
		m.result = msg.Result
		return m, nil
	}

	return m, nil
}

// View renders the cleanup view
func (m *CleanupViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🗑️  Cleaning Up"))
	b.WriteString("\n\n")

	if !m.done {
		b.WriteString(m.spinner.View())
		if m.opts.DryRun {
			b.WriteString(" Simulating deletion... ")
		} else {
			b.WriteString(" Deleting files... ")
		}
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
		b.WriteString("\n\n")

		if len(m.items) > 0 {
			percent := float64(m.current) / float64(len(m.items))
			b.WriteString(m.progress.ViewAs(percent))
			b.WriteString("\n\n")
		}

		if m.currentPath != "" {
			b.WriteString(styles.DimStyle.Render(uiutils.TruncatePath(m.currentPath, 60)))
			b.WriteString("\n")
		}

		b.WriteString(fmt.Sprintf("Progress: %d/%d files, %s freed",
			m.current, len(m.items), utils.FormatBytes(m.freedBytes)))
	} else {
		b.WriteString(styles.SuccessStyle.Render("✓ Cleanup Complete!"))
		b.WriteString("\n\n")

		if m.result != nil {
			b.WriteString(fmt.Sprintf("Deleted: %d files\n", len(m.result.Deleted)))
			if len(m.result.Skipped) > 0 {
				b.WriteString(fmt.Sprintf("Skipped: %d files\n", len(m.result.Skipped)))
			}
			b.WriteString(fmt.Sprintf("Size freed: %s\n", utils.FormatBytes(m.result.FreedBytes())))
		}

		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Moving to summary..."))
	}

	return b.String()
}

// performCleanup performs the actual cleanup
func (m *CleanupViewModel) performCleanup() tea.Msg {
	result, err := m.session.Clean(context.Background(), m.items, m.opts)
	return CleanupCompleteMsg{Result: result, Err: err}
}
