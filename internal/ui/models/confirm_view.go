package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	uiutils "github.com/fenilsonani/diskwise/internal/ui/utils"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// RiskLevel represents the risk level of a deletion operation
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ConfirmViewModel handles the confirmation screen
type ConfirmViewModel struct {
	records   []advisor.ItemAdvice
	items     []scanner.Item
	cursor    int // 0 = Yes, 1 = Review, 2 = Cancel
	riskLevel RiskLevel
	dryRun    bool
	width     int
	height    int
}

// NewConfirmViewModel creates a new confirm view model
func NewConfirmViewModel(records []advisor.ItemAdvice, items []scanner.Item, dryRun bool, width, height int) *ConfirmViewModel {
	risk := calculateRiskLevel(records)
	defaultCursor := 0 // Default to "Yes" if items were explicitly selected

	// Override for high risk
	if risk == RiskHigh {
		defaultCursor = 2 // Default to "Cancel" for high risk
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &ConfirmViewModel{
		records:   records,
		items:     items,
		cursor:    defaultCursor,
		riskLevel: risk,
		dryRun:    dryRun,
		width:     width,
		height:    height,
	}
}

// calculateRiskLevel maps the highest caution level in the plan to an
// overall operation risk.
func calculateRiskLevel(records []advisor.ItemAdvice) RiskLevel {
	risk := RiskLow
	for _, rec := range records {
		switch rec.Level {
		case "L4", "L5":
			return RiskHigh
		case "L3":
			risk = RiskMedium
		}
	}
	if len(records) > 500 {
		return RiskHigh
	}
	return risk
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 2 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 3
		case "enter":
			switch m.cursor {
			case 0: // Yes
				return m, func() tea.Msg { return ConfirmedMsg{} }
			case 1: // Review
				return m, func() tea.Msg { return ReviewSelectionMsg{} }
			case 2: // Cancel
				return m, tea.Quit
			}
		case "y":
			// Quick confirm
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case "e":
			// Edit/Review selection
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "n":
			// Quick cancel
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Deletion"))
	b.WriteString("\n\n")

	// Summary
	var totalSize int64
	levelCounts := make(map[string]int)
	levelSizes := make(map[string]int64)
	for i, item := range m.items {
		totalSize += item.SizeBytes
		level := m.records[i].Level
		levelCounts[level]++
		levelSizes[level] += item.SizeBytes
	}

	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to delete %d files (%s)",
		len(m.items), utils.FormatBytes(totalSize))))
	b.WriteString("\n\n")

	b.WriteString(styles.SubtitleStyle.Render("Breakdown by level:"))
	b.WriteString("\n")

	for _, level := range advisor.Levels {
		if count, ok := levelCounts[level]; ok {
			b.WriteString(fmt.Sprintf("  %s %3d files (%s)\n",
				styles.LevelBadge(level),
				count,
				styles.FileSizeStyle.Render(utils.FormatBytes(levelSizes[level]))))
		}
	}

	b.WriteString("\n")

	riskText, riskStyle, riskIcon := m.getRiskDisplay()
	b.WriteString(fmt.Sprintf("Risk Level: %s %s\n", riskIcon, riskStyle(riskText)))

	if m.riskLevel == RiskHigh {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render("⚠️  HIGH RISK OPERATION ⚠️"))
		b.WriteString("\n")
		b.WriteString(styles.WarningStyle.Render("This plan includes L4/L5 items or a very large number of files!"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.dryRun {
		b.WriteString(styles.InfoStyle.Render("Dry run: nothing will actually be deleted."))
	} else {
		b.WriteString(styles.WarningStyle.Render("⚠️  Files go to the Recycle Bin where possible, but treat this as final!"))
	}
	b.WriteString("\n\n")

	// Three buttons: Yes, Review, Cancel
	yesBtn := "[ Yes, delete ]"
	reviewBtn := "[ Review ]"
	cancelBtn := "[ Cancel ]"

	switch m.cursor {
	case 0:
		yesBtn = styles.HighlightStyle.Render("[ Yes, delete ]")
	case 1:
		reviewBtn = styles.HighlightStyle.Render("[ Review ]")
	case 2:
		cancelBtn = styles.HighlightStyle.Render("[ Cancel ]")
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s", yesBtn, reviewBtn, cancelBtn))
	b.WriteString("\n\n")

	helpText := "y:confirm  e:edit  n:cancel  ←/→:navigate"
	if m.width < 60 {
		helpText = "y:yes  e:edit  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

// getRiskDisplay returns the display text, style render function, and icon for the current risk level
func (m *ConfirmViewModel) getRiskDisplay() (string, func(string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (includes L4/L5 items)", func(s string) string { return styles.ErrorStyle.Render(s) }, "🔴"
	case RiskMedium:
		return "MEDIUM (includes L3 items)", func(s string) string { return styles.WarningStyle.Render(s) }, "⚠️"
	default:
		return "LOW (L1/L2 items only)", func(s string) string { return styles.SuccessStyle.Render(s) }, "✓"
	}
}
