package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dukerupert/list42/internal/editor"
	"github.com/dukerupert/list42/internal/livesync"
	"github.com/dukerupert/list42/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	notifier := tui.NewNotifier()
	a, err := newApp(appOptions{interactive: true, notifier: notifier})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	userID, err := a.userID(ctx)
	if err != nil {
		return err
	}
	listID, err := a.listID(userID)
	if err != nil {
		return err
	}

	live := livesync.New(a.cfg.BaseURL, a.client.SessionToken, a.cache, a.logger.With("component", "livesync"))
	go live.Run(ctx)

	m := tui.New(tui.Config{
		Cache:     a.cache,
		Editor:    editor.New(listID, a.cache, a.coord, a.logger.With("component", "editor")),
		Redeemer:  a.redeemer,
		Selection: a.prefs,
		Notifier:  notifier,
		UserID:    userID,
		BaseURL:   a.cfg.BaseURL,
		Logger:    a.logger.With("component", "tui"),
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
