package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/scanner"
	"github.com/fenilsonani/diskwise/internal/ui/styles"
	uiutils "github.com/fenilsonani/diskwise/internal/ui/utils"
	"github.com/fenilsonani/diskwise/pkg/utils"
)

// InfoPanel represents a contextual information panel
type InfoPanel struct {
	title   string
	content []InfoItem
	visible bool
	width   int
}

// InfoItem represents a single piece of information
type InfoItem struct {
	Label string
	Value string
}

// NewInfoPanel creates a new info panel
func NewInfoPanel(title string, width int) *InfoPanel {
	return &InfoPanel{
		title: title,
		width: width,
	}
}

// AddItem adds an information item to the panel
func (p *InfoPanel) AddItem(label, value string) {
	p.content = append(p.content, InfoItem{Label: label, Value: value})
}

// SetVisible sets the visibility of the panel
func (p *InfoPanel) SetVisible(visible bool) {
	p.visible = visible
}

// IsVisible returns whether the panel is visible
func (p *InfoPanel) IsVisible() bool {
	return p.visible
}

// Toggle toggles the visibility of the panel
func (p *InfoPanel) Toggle() {
	p.visible = !p.visible
}

// SetWidth sets the width of the panel
func (p *InfoPanel) SetWidth(width int) {
	p.width = width
}

// Render renders the info panel
func (p *InfoPanel) Render() string {
	if !p.visible || len(p.content) == 0 {
		return ""
	}

	// Half the terminal, clamped to a readable band
	panelWidth := p.width / 2
	if panelWidth < 40 {
		panelWidth = 40
	}
	if panelWidth > 80 {
		panelWidth = 80
	}

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(styles.Primary).
		Padding(1, 2).
		Width(panelWidth).
		Background(styles.BgDark)

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Underline(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render(p.title))
	content.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Bold(true)
	valueStyle := lipgloss.NewStyle().
		Foreground(styles.Text)

	for i, item := range p.content {
		content.WriteString(labelStyle.Render(item.Label) + ": ")
		content.WriteString(valueStyle.Render(item.Value))
		if i < len(p.content)-1 {
			content.WriteString("\n")
		}
	}

	content.WriteString("\n\n")
	footerStyle := lipgloss.NewStyle().
		Foreground(styles.TextDim).
		Italic(true)
	content.WriteString(footerStyle.Render("Press 'i' or 'esc' to close"))

	return panelStyle.Render(content.String())
}

// ItemInfoPanel builds an info panel describing one rated cleanup candidate.
func ItemInfoPanel(rec advisor.ItemAdvice, item scanner.Item, width int) *InfoPanel {
	panel := NewInfoPanel("Item Details", width)

	panel.AddItem("Path", uiutils.TruncatePath(item.Path, 60))
	panel.AddItem("Size", utils.FormatBytes(item.SizeBytes))
	panel.AddItem("Modified", item.ModTime.Format("2006-01-02 15:04"))

	category := string(item.Category)
	if label, ok := advisor.CategoryLabels[category]; ok {
		category = fmt.Sprintf("%s (%s)", category, label)
	}
	panel.AddItem("Category", category)

	panel.AddItem("Level", fmt.Sprintf("%s (confidence %.2f)", rec.Level, rec.Confidence))
	panel.AddItem("Reason", rec.Reason)
	panel.AddItem("Risk", rec.RiskNotes)
	panel.AddItem("Action", rec.RecommendedAction)
	if rec.RequiresConfirmation {
		panel.AddItem("Confirmation", "required before deletion")
	}

	return panel
}
