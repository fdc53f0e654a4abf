package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/desertthunder/raff/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive book browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logFile, err := shared.RedirectToFile(r.logger, r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()

	r.openStores()
	logger := shared.WithLogger(r.logger, "component", "tui")

	model := ui.NewModel(ctx, ui.ModelOpts{
		Catalog:        r.catalog,
		Assistant:      r.assistant,
		Downloader:     r.archive,
		Home:           r.homeLoader(),
		Favorites:      r.favorites,
		Reviews:        r.reviews,
		Downloads:      r.downloads,
		Preferences:    r.prefs,
		DownloadDir:    cmd.String("dir"),
		DarkBackground: lipgloss.HasDarkBackground(),
		Logger:         logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
