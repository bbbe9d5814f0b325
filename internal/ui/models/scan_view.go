package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/session"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	uiutils "github.com/fenilsonani/diskwise/internal/ui/utils"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// ScanViewModel drives the scan-and-rate phase: it kicks off the session
// scan, renders live progress from the event bus, and hands control back to
// the app when rating is done.
type ScanViewModel struct {
	session   *session.Session
	spinner   spinner.Model
	startTime time.Time

	rating      bool // scan done, advisory rating in flight
	done        bool
	currentPath string
	filesSeen   int
	itemsFound  int
	advisory    string
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(sess *session.Session) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &ScanViewModel{
		session:   sess,
		spinner:   s,
		startTime: time.Now(),
	}
}

// Init initializes the scan view
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.performScan,
	)
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ScanProgressMsg:
		m.currentPath = msg.Current
		m.filesSeen = msg.FilesSeen
		m.itemsFound = msg.ItemsFound
		if msg.Stage == progress.StageCompleted || msg.Stage == progress.StageStopped {
			m.rating = true
		}
		return m, nil

	case AdvisoryProgressMsg:
		m.rating = true
		m.advisory = advisoryStageLabel(msg.Stage, msg.Attempt)
		return m, nil

	case ScanCompleteMsg:
		m.done = true
		return m, nil
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🔍 Scanning Disk"))
	b.WriteString("\n\n")

	if !m.done {
		b.WriteString(m.spinner.View())
		if m.rating {
			b.WriteString(" Rating candidates... ")
		} else {
			b.WriteString(" Scanning... ")
		}
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
		b.WriteString("\n\n")

		if m.rating {
			if m.advisory != "" {
				b.WriteString(styles.DimStyle.Render("Advisory: "))
				b.WriteString(m.advisory)
				b.WriteString("\n\n")
			}
		} else if m.currentPath != "" {
			b.WriteString(styles.DimStyle.Render("Current: "))
			b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.currentPath, 60)))
			b.WriteString("\n\n")
		}

		b.WriteString(fmt.Sprintf("Files seen: %s   Candidates: %s\n",
			styles.BoldStyle.Render(fmt.Sprintf("%d", m.filesSeen)),
			styles.BoldStyle.Render(fmt.Sprintf("%d", m.itemsFound))))
	} else {
		b.WriteString(styles.SuccessStyle.Render("✓ Scan Complete!"))
		b.WriteString("\n\n")

		items := m.session.Items()
		var total int64
		for i := range items {
			total += items[i].SizeBytes
		}
		b.WriteString(fmt.Sprintf("Found %s candidates totaling %s\n",
			styles.BoldStyle.Render(fmt.Sprintf("%d", len(items))),
			styles.FileSizeStyle.Render(utils.FormatBytes(total))))

		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Moving to level selection..."))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press ctrl+c to cancel"))

	return b.String()
}

// performScan runs the scan and the advisory rating back to back.
func (m *ScanViewModel) performScan() tea.Msg {
	ctx := context.Background()

	if _, err := m.session.Scan(ctx); err != nil {
		return ScanCompleteMsg{Err: err}
	}
	if _, err := m.session.Advise(ctx); err != nil {
		return ScanCompleteMsg{Err: err}
	}
	return ScanCompleteMsg{}
}

func advisoryStageLabel(stage string, attempt int) string {
	switch stage {
	case progress.StagePrepare:
		return "preparing request"
	case progress.StageCacheHit:
		return "served from cache"
	case progress.StageCacheMiss:
		return "cache miss"
	case progress.StageRequest:
		return fmt.Sprintf("contacting service (attempt %d)", attempt)
	case progress.StageRetry:
		return fmt.Sprintf("retrying (attempt %d)", attempt)
	case progress.StageParse:
		return "parsing response"
	case progress.StageDone:
		return "done"
	case progress.StageFailed:
		return "unavailable, using local rating"
	default:
		return stage
	}
}
