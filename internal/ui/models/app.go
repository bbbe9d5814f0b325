package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/cleaner"
	"github.com/fenilsonani/diskwise/internal/config"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/session"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
)

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewLevelSelection
	ViewItemBrowser
	ViewConfirmation
	ViewCleaning
	ViewSummary
	ViewHelp
)

// AppModel is the root model for the interactive TUI. It walks the user
// through scan, level selection, item review, confirmation, cleanup and
// summary, delegating rendering to the per-view models.
type AppModel struct {
	state         ViewState
	previousState ViewState // For back navigation

	// Shared data
	config  *config.Config
	session *session.Session
	items   []scanner.Item
	advice  *advisor.Result

	// View models
	scanView    *ScanViewModel
	levelView   *LevelViewModel
	browserView *BrowserViewModel
	confirmView *ConfirmViewModel
	cleanupView *CleanupViewModel
	summaryView *SummaryViewModel

	// UI state
	width  int
	height int
	err    error
}

// NewAppModel creates a new app model
func NewAppModel(sess *session.Session, cfg *config.Config) *AppModel {
	return &AppModel{
		state:   ViewScanning,
		config:  cfg,
		session: sess,
	}
}

// Init initializes the model
func (m *AppModel) Init() tea.Cmd {
	// Start scanning immediately
	m.scanView = NewScanViewModel(m.session)
	return m.scanView.Init()
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Allow quitting from most views except during active cleanup
			if m.state != ViewCleaning {
				return m, tea.Quit
			}
		case "?":
			if m.state == ViewHelp {
				m.state = m.previousState
			} else {
				m.previousState = m.state
				m.state = ViewHelp
			}
			return m, nil
		case "esc":
			switch m.state {
			case ViewHelp:
				m.state = m.previousState
				return m, nil
			case ViewItemBrowser:
				if m.browserView != nil && m.browserView.CloseInfoPanel() {
					return m, nil
				}
				m.state = ViewLevelSelection
				return m, nil
			case ViewConfirmation:
				m.state = ViewItemBrowser
				return m, nil
			}
		default:
			if m.state == ViewHelp {
				m.state = m.previousState
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ScanCompleteMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.items = m.session.Items()
		m.advice = m.session.Advice()
		m.levelView = NewLevelViewModel(m.advice, m.session.Settings().AllowL2, m.width, m.height)
		m.state = ViewLevelSelection
		return m, nil

	case LevelsSelectedMsg:
		m.browserView = NewBrowserViewModel(m.advice, m.items, msg.Levels, m.width, m.height)
		m.state = ViewItemBrowser
		return m, nil

	case ItemsSelectedMsg:
		m.confirmView = NewConfirmViewModel(msg.Records, msg.Items, m.config.DryRun, m.width, m.height)
		m.state = ViewConfirmation
		return m, nil

	case ConfirmedMsg:
		m.cleanupView = NewCleanupViewModel(m.session, m.confirmView.items, cleaner.Options{DryRun: m.config.DryRun})
		m.state = ViewCleaning
		return m, m.cleanupView.Init()

	case ReviewSelectionMsg:
		m.state = ViewItemBrowser
		return m, nil

	case CleanupCompleteMsg:
		m.summaryView = NewSummaryViewModel(msg.Result, msg.Err)
		m.state = ViewSummary
		return m, nil
	}

	// Delegate to current view
	return m.delegateUpdate(msg)
}

// delegateUpdate delegates the update to the current view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewLevelSelection:
		if m.levelView != nil {
			m.levelView, cmd = m.levelView.Update(msg)
		}
	case ViewItemBrowser:
		if m.browserView != nil {
			m.browserView, cmd = m.browserView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			m.cleanupView, cmd = m.cleanupView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("Error: "+m.err.Error()) + "\n\nPress q to quit."
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewLevelSelection:
		if m.levelView != nil {
			return m.levelView.View()
		}
	case ViewItemBrowser:
		if m.browserView != nil {
			return m.browserView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			return m.cleanupView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp renders the help view with context-aware content
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	var viewName string
	var helpContent string

	switch m.previousState {
	case ViewScanning:
		viewName = "Scan"
		helpContent = m.getHelpForScan()
	case ViewLevelSelection:
		viewName = "Level Selection"
		helpContent = m.getHelpForLevels()
	case ViewItemBrowser:
		viewName = "Item Browser"
		helpContent = m.getHelpForBrowser()
	case ViewConfirmation:
		viewName = "Confirmation"
		helpContent = m.getHelpForConfirm()
	case ViewCleaning:
		viewName = "Cleanup"
		helpContent = m.getHelpForCleanup()
	case ViewSummary:
		viewName = "Summary"
		helpContent = m.getHelpForSummary()
	default:
		viewName = "General"
		helpContent = m.getHelpForGeneral()
	}

	title := fmt.Sprintf("Help - %s", viewName)
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

func (m *AppModel) getHelpForScan() string {
	return `Scanning your disk for cleanup candidates and rating them.

Actions:
  ctrl+c  - Cancel scan and exit
  q       - Cancel scan and exit

Every candidate is assigned a caution level from L1 (safe to
auto-clean) to L5 (do not touch). The scan proceeds to level
selection when rating is done.`
}

func (m *AppModel) getHelpForLevels() string {
	return `Select which caution levels to include in the cleanup.

Navigation:
  ↑/k     - Move up
  ↓/j     - Move down

Selection:
  space   - Toggle level
  x       - Toggle + move down
  ctrl+a  - Select all
  ctrl+d  - Deselect all

Actions:
  enter   - Proceed to item browser
  q       - Quit

L1-L2 are routine cleanup targets. L3 needs review. L4-L5 are
high-risk and excluded by default.`
}

func (m *AppModel) getHelpForBrowser() string {
	return `Review and adjust the individual items to delete.

Navigation               Selection
  ↑/k     Move up          space    Toggle item
  ↓/j     Move down        x        Toggle + down
  g       Top              ctrl+a   Select all
  G       Bottom           ctrl+d   Deselect all
  ctrl+f  Page down
  ctrl+b  Page up

Actions
  enter   Proceed          i        Item details
  esc     Back             q        Quit

Items marked (confirm) carry an L4/L5 rating and start
unselected.`
}

func (m *AppModel) getHelpForConfirm() string {
	return `Review and confirm your deletion choices.

Navigation:
  ←/→/h/l - Switch between buttons

Actions:
  enter   - Confirm selection
  y       - Yes, proceed
  e       - Edit selection (go back)
  n       - No, cancel
  esc     - Go back
  q       - Quit

Files go to the Recycle Bin where possible, but treat every
deletion as final.`
}

func (m *AppModel) getHelpForCleanup() string {
	return `Deleting selected files. This may take a moment.

Actions:
  ctrl+c  - Cancel cleanup (safely)

Progress is shown in real time. The operation proceeds to the
summary when complete.`
}

func (m *AppModel) getHelpForSummary() string {
	return `Cleanup complete. Review the results.

Actions:
  enter   - Exit application
  q       - Exit application

Results show files deleted, space freed, and anything skipped
or failed.`
}

func (m *AppModel) getHelpForGeneral() string {
	return `DiskWise - Interactive Mode Help

Global Shortcuts:
  ?       - Toggle this help
  esc     - Go back / Close help
  q       - Quit (from most views)
  ctrl+c  - Force quit

This interactive mode guides you through:
  1. Scanning - Find and rate cleanup candidates
  2. Level Selection - Choose caution levels
  3. Item Browser - Adjust individual items
  4. Confirmation - Review your choices
  5. Cleanup - Delete selected files
  6. Summary - View results

Press ? at any time to see context-specific help.`
}

// Custom messages

// ScanCompleteMsg signals that scanning and rating finished.
type ScanCompleteMsg struct {
	Err error
}

// LevelsSelectedMsg carries the caution levels chosen for cleanup.
type LevelsSelectedMsg struct {
	Levels []string
}

// ItemsSelectedMsg carries the item selection from the browser.
type ItemsSelectedMsg struct {
	Records []advisor.ItemAdvice
	Items   []scanner.Item
}

// ConfirmedMsg signals the user confirmed the deletion plan.
type ConfirmedMsg struct{}

// ReviewSelectionMsg signals the user wants to edit the selection.
type ReviewSelectionMsg struct{}

// CleanupCompleteMsg carries the cleanup outcome.
type CleanupCompleteMsg struct {
	Result *cleaner.Result
	Err    error
}

// ScanProgressMsg wraps a scanner progress event forwarded from the bus.
type ScanProgressMsg progress.ScanEvent

// AdvisoryProgressMsg wraps an advisory progress event forwarded from the bus.
type AdvisoryProgressMsg progress.AdvisoryEvent

// CleanProgressMsg wraps a cleanup progress event forwarded from the bus.
type CleanProgressMsg progress.CleanEvent
