package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/ui/components"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	uiutils "github.com/fenilsonani/diskwise/internal/ui/utils"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// LevelItem is one selectable caution level with its aggregates.
type LevelItem struct {
	Level       string
	Count       int
	Size        int64
	Selected    bool
	Recommended bool
	Description string
}

// LevelViewModel handles caution level selection. Levels with no rated
// items are shown dimmed and cannot be selected.
type LevelViewModel struct {
	advice *advisor.Result
	levels []LevelItem
	cursor int
	width  int
	height int
}

// NewLevelViewModel creates a new level view model. L1 starts selected; L2
// joins it when automatic L2 cleanup is allowed in the settings.
func NewLevelViewModel(advice *advisor.Result, allowL2 bool, width, height int) *LevelViewModel {
	var levels []LevelItem
	for _, level := range advisor.Levels {
		group := advice.Advice.LevelGroups[level]

		var size int64
		for _, rec := range group {
			size += rec.EstimatedSavingsBytes
		}

		selected, recommended := levelDefaults(level, allowL2)
		if len(group) == 0 {
			selected = false
		}

		levels = append(levels, LevelItem{
			Level:       level,
			Count:       len(group),
			Size:        size,
			Selected:    selected,
			Recommended: recommended,
			Description: levelDescription(level),
		})
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &LevelViewModel{
		advice: advice,
		levels: levels,
		width:  width,
		height: height,
	}
}

// Init initializes the level view
func (m *LevelViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *LevelViewModel) Update(msg tea.Msg) (*LevelViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.levels)-1 {
				m.cursor++
			}
		case "g":
			m.cursor = 0
		case "G":
			m.cursor = len(m.levels) - 1
		case "space", " ":
			m.toggle(m.cursor)
		case "x":
			m.toggle(m.cursor)
			if m.cursor < len(m.levels)-1 {
				m.cursor++
			}
		case "ctrl+a":
			for i := range m.levels {
				if m.levels[i].Count > 0 {
					m.levels[i].Selected = true
				}
			}
		case "ctrl+d":
			for i := range m.levels {
				m.levels[i].Selected = false
			}
		case "enter":
			return m, m.proceedToBrowser()
		}
	}

	return m, nil
}

func (m *LevelViewModel) toggle(i int) {
	if i >= 0 && i < len(m.levels) && m.levels[i].Count > 0 {
		m.levels[i].Selected = !m.levels[i].Selected
	}
}

// View renders the level selection view
func (m *LevelViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("📦 Select Caution Levels"))
	b.WriteString("\n\n")

	if m.advice.Advice.Diagnosis.Summary != "" {
		b.WriteString(styles.SubtitleStyle.Render(m.advice.Advice.Diagnosis.Summary))
		b.WriteString("\n\n")
	}

	helpText := "↑/↓:navigate  space:toggle  x:toggle+down  ctrl+a:all  ctrl+d:none  enter:continue"
	if m.width < 80 {
		helpText = "↑/↓:move  space:toggle  enter:continue"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))
	b.WriteString("\n\n")

	for i, lvl := range m.levels {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		checkbox := styles.UncheckedBox()
		if lvl.Selected {
			checkbox = styles.CheckedBox()
		}

		line := fmt.Sprintf("%s%s %s", cursor, checkbox, styles.LevelBadge(lvl.Level))

		if lvl.Recommended && lvl.Count > 0 {
			line += " " + styles.SuccessStyle.Render("RECOMMENDED")
		}

		if lvl.Count == 0 {
			line += " " + styles.DimStyle.Render("(empty)")
		} else {
			sizeStyle := lipgloss.NewStyle().Foreground(styles.LevelColor(lvl.Level)).Bold(true)
			line += fmt.Sprintf(" (%s items, %s)",
				styles.DimStyle.Render(fmt.Sprintf("%d", lvl.Count)),
				sizeStyle.Render(utils.FormatBytes(lvl.Size)))
		}

		b.WriteString(line)
		b.WriteString("\n")

		if i == m.cursor {
			descStyle := lipgloss.NewStyle().Foreground(styles.TextDim).Italic(true).MarginLeft(6)
			b.WriteString(descStyle.Render("↳ " + lvl.Description))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	var selectedCount int
	var selectedSize int64
	selectedLevels := 0
	for _, lvl := range m.levels {
		if lvl.Selected {
			selectedLevels++
			selectedCount += lvl.Count
			selectedSize += lvl.Size
		}
	}

	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Selected: %d items, %s",
		selectedCount, utils.FormatBytes(selectedSize))))
	b.WriteString("\n\n")

	statusBar := components.NewStatusBar()
	statusBar.SetView("Level Selection")
	statusBar.SetSelection(selectedLevels, len(m.levels), selectedSize)
	statusBar.SetShortcuts([]components.Shortcut{
		{Key: "↑/↓", Desc: "navigate"},
		{Key: "space", Desc: "toggle"},
		{Key: "enter", Desc: "continue"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	})
	b.WriteString(statusBar.Render(m.width))

	return b.String()
}

// proceedToBrowser sends the chosen levels to the app.
func (m *LevelViewModel) proceedToBrowser() tea.Cmd {
	var selected []string
	for _, lvl := range m.levels {
		if lvl.Selected {
			selected = append(selected, lvl.Level)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	return func() tea.Msg {
		return LevelsSelectedMsg{Levels: selected}
	}
}

// levelDefaults returns the default selection and recommended flag for a
// caution level.
func levelDefaults(level string, allowL2 bool) (selected, recommended bool) {
	switch level {
	case "L1":
		return true, true
	case "L2":
		return allowL2, true
	default:
		return false, false
	}
}

// levelDescription returns a short English summary of what a level means.
func levelDescription(level string) string {
	switch level {
	case "L1":
		return "Safe to clean automatically - regenerable temp and cache files"
	case "L2":
		return "Low risk - cleanable after a quick glance"
	case "L3":
		return "Needs review - check the items before deleting"
	case "L4":
		return "High risk - confirmation required, may hold user data"
	case "L5":
		return "Do not touch - protected or system-critical paths"
	default:
		return "Unknown level"
	}
}
