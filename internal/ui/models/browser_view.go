package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/ui/components"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	uiutils "github.com/fenilsonani/diskwise/internal/ui/utils"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// browserEntry pairs an advisory record with the scanned item it rates.
type browserEntry struct {
	rec      advisor.ItemAdvice
	item     scanner.Item
	selected bool
}

// BrowserViewModel handles per-item review and selection within the chosen
// caution levels. Confirmation-gated items start unselected; suggestion-only
// entries are listed for awareness but cannot be selected.
type BrowserViewModel struct {
	entries   []browserEntry
	cursor    int
	offset    int
	pageSize  int
	infoPanel *components.InfoPanel
	width     int
	height    int
}

// NewBrowserViewModel creates a new browser view model
func NewBrowserViewModel(advice *advisor.Result, items []scanner.Item, levels []string, width, height int) *BrowserViewModel {
	wanted := make(map[string]bool, len(levels))
	for _, level := range levels {
		wanted[level] = true
	}

	var entries []browserEntry
	for _, rec := range advice.Advice.Items {
		if !wanted[rec.Level] {
			continue
		}
		if rec.ItemID < 0 || rec.ItemID >= len(items) {
			continue
		}
		item := items[rec.ItemID]
		entries = append(entries, browserEntry{
			rec:      rec,
			item:     item,
			selected: !rec.RequiresConfirmation && !item.IsSuggestionOnly && !item.IsForbidden,
		})
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &BrowserViewModel{
		entries:  entries,
		pageSize: uiutils.CalculatePageSize(height),
		width:    width,
		height:   height,
	}
}

// CloseInfoPanel closes the info panel if it is open, reporting whether the
// esc key was consumed.
func (m *BrowserViewModel) CloseInfoPanel() bool {
	if m.infoPanel != nil && m.infoPanel.IsVisible() {
		m.infoPanel.SetVisible(false)
		return true
	}
	return false
}

// Init initializes the browser view
func (m *BrowserViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *BrowserViewModel) Update(msg tea.Msg) (*BrowserViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = uiutils.CalculatePageSize(msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "g":
			m.cursor = 0
			m.offset = 0
		case "G":
			if len(m.entries) > 0 {
				m.cursor = len(m.entries) - 1
				m.clampOffset()
			}
		case "ctrl+f":
			m.moveCursor(m.pageSize)
		case "ctrl+b":
			m.moveCursor(-m.pageSize)
		case "space":
			m.toggle(m.cursor)
		case "x":
			m.toggle(m.cursor)
			m.moveCursor(1)
		case "ctrl+a":
			for i := range m.entries {
				if m.selectable(i) {
					m.entries[i].selected = true
				}
			}
		case "ctrl+d":
			for i := range m.entries {
				m.entries[i].selected = false
			}
		case "i":
			m.toggleInfoPanel()
		case "enter":
			return m, m.proceedToConfirmation()
		}
	}

	return m, nil
}

func (m *BrowserViewModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > len(m.entries)-1 {
		m.cursor = len(m.entries) - 1
	}
	m.clampOffset()
}

func (m *BrowserViewModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *BrowserViewModel) selectable(i int) bool {
	return !m.entries[i].item.IsSuggestionOnly && !m.entries[i].item.IsForbidden
}

func (m *BrowserViewModel) toggle(i int) {
	if i >= 0 && i < len(m.entries) && m.selectable(i) {
		m.entries[i].selected = !m.entries[i].selected
	}
}

func (m *BrowserViewModel) toggleInfoPanel() {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return
	}
	if m.infoPanel != nil && m.infoPanel.IsVisible() {
		m.infoPanel.SetVisible(false)
		return
	}
	entry := m.entries[m.cursor]
	m.infoPanel = components.ItemInfoPanel(entry.rec, entry.item, m.width)
	m.infoPanel.SetVisible(true)
}

// View renders the browser view
func (m *BrowserViewModel) View() string {
	if m.infoPanel != nil && m.infoPanel.IsVisible() {
		return m.infoPanel.Render()
	}

	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("📁 Review Items"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(styles.DimStyle.Render("No items in the selected levels."))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("esc go back | q quit"))
		return b.String()
	}

	end := m.offset + m.pageSize
	if end > len(m.entries) {
		end = len(m.entries)
	}

	pathWidth := m.width - 35
	if pathWidth < 30 {
		pathWidth = 30
	}

	for i := m.offset; i < end; i++ {
		entry := m.entries[i]

		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		checkbox := styles.UncheckedBox()
		if entry.selected {
			checkbox = styles.CheckedBox()
		}

		line := fmt.Sprintf("%s%s %s %s %s",
			cursor,
			checkbox,
			styles.LevelBadge(entry.rec.Level),
			styles.FilePathStyle.Render(uiutils.TruncatePath(entry.item.Path, pathWidth)),
			styles.FileSizeStyle.Render(utils.FormatBytes(entry.item.SizeBytes)),
		)

		if entry.rec.RequiresConfirmation {
			line += " " + styles.WarningStyle.Render("(confirm)")
		}
		if entry.item.IsSuggestionOnly {
			line += " " + styles.DimStyle.Render("(review only)")
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.entries) > m.pageSize {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  … %d-%d of %d", m.offset+1, end, len(m.entries))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	var selectedCount int
	var selectedSize int64
	for _, entry := range m.entries {
		if entry.selected {
			selectedCount++
			selectedSize += entry.item.SizeBytes
		}
	}

	statusBar := components.NewStatusBar()
	statusBar.SetView("Item Browser")
	statusBar.SetSelection(selectedCount, len(m.entries), selectedSize)
	statusBar.SetShortcuts([]components.Shortcut{
		{Key: "space", Desc: "toggle"},
		{Key: "i", Desc: "details"},
		{Key: "enter", Desc: "continue"},
		{Key: "esc", Desc: "back"},
		{Key: "q", Desc: "quit"},
	})
	b.WriteString(statusBar.Render(m.width))

	return b.String()
}

// proceedToConfirmation sends the current selection to the app.
func (m *BrowserViewModel) proceedToConfirmation() tea.Cmd {
	var records []advisor.ItemAdvice
	var items []scanner.Item
	for _, entry := range m.entries {
		if entry.selected {
			records = append(records, entry.rec)
			items = append(items, entry.item)
		}
	}
	if len(items) == 0 {
		return nil
	}

	return func() tea.Msg {
		return ItemsSelectedMsg{Records: records, Items: items}
	}
}
