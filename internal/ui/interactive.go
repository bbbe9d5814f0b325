// Package ui holds the interactive terminal front end and the plain-text
// live progress renderer used by the non-interactive commands.
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/diskwise/internal/config"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/session"
	"github.com/fenilsonani/diskwise/internal/ui/models"
)

// RunInteractive starts the interactive TUI mode. Progress events published
// on bus are forwarded into the program so the views can render them live.
func RunInteractive(sess *session.Session, cfg *config.Config, bus *progress.Bus) error {
	m := models.NewAppModel(sess, cfg)

	p := tea.NewProgram(m, tea.WithAltScreen())

	sub := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub {
			switch ev := ev.(type) {
			case progress.ScanEvent:
				p.Send(models.ScanProgressMsg(ev))
			case progress.AdvisoryEvent:
				p.Send(models.AdvisoryProgressMsg(ev))
			case progress.CleanEvent:
				p.Send(models.CleanProgressMsg(ev))
			}
		}
	}()

	_, err := p.Run()
	bus.Unsubscribe(sub)
	<-done
	if err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}
	return nil
}
