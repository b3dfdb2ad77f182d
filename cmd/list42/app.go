package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dukerupert/list42/internal/api"
	"github.com/dukerupert/list42/internal/cache"
	"github.com/dukerupert/list42/internal/config"
	"github.com/dukerupert/list42/internal/database"
	"github.com/dukerupert/list42/internal/editor"
	"github.com/dukerupert/list42/internal/logging"
	"github.com/dukerupert/list42/internal/mutation"
	"github.com/dukerupert/list42/internal/prefs"
	"github.com/dukerupert/list42/internal/share"
	"github.com/dukerupert/list42/internal/toast"
)

var errNotSignedIn = errors.New("not signed in; run list42 login")

// app wires the client core for one command.
type app struct {
	cfg     *config.Client
	logger  *slog.Logger
	logFile io.Closer

	db     *sql.DB
	prefs  *prefs.Store
	client *api.Client

	notifier toast.Notifier
	cache    *cache.Store
	coord    *mutation.Coordinator
	redeemer *share.Redeemer
}

type appOptions struct {
	// interactive sends logs to the configured log file instead of stderr.
	interactive bool
	notifier    toast.Notifier
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := config.LoadClient(configFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if opts.interactive {
		var w io.Writer = io.Discard
		if cfg.LogFile != "" {
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			w, a.logFile = f, f
		}
		a.logger = logging.New(w, cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(a.logger)
	} else {
		a.logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)
	}

	a.db, err = database.OpenLocal(cfg.DataPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	a.prefs = prefs.New(a.db)

	token := cfg.SessionToken
	if token == "" {
		if token, err = a.prefs.SessionToken(); err != nil {
			a.close()
			return nil, err
		}
	}
	a.client = api.NewClient(api.Config{BaseURL: cfg.BaseURL, SessionToken: token, Timeout: cfg.Timeout})

	a.notifier = opts.notifier
	if a.notifier == nil {
		a.notifier = toast.NotifierFunc(func(key toast.Key, sev toast.Severity) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", sev, toast.Message(key))
		})
	}
	a.cache = cache.New(a.client, a.logger.With("component", "cache"))
	a.coord = mutation.NewCoordinator(a.cache, a.client, a.notifier, a.logger.With("component", "mutation"))
	a.redeemer = share.NewRedeemer(a.client, a.cache, a.notifier, a.logger.With("component", "share"))
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// userID checks the session with the list store.
func (a *app) userID(ctx context.Context) (string, error) {
	if a.client.SessionToken() == "" {
		return "", errNotSignedIn
	}
	info, err := a.client.Session(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		return "", errNotSignedIn
	}
	if err != nil {
		return "", err
	}
	return info.User.ID, nil
}

// listID is the --list flag or the user's selected list.
func (a *app) listID(userID string) (string, error) {
	if listFlag != "" {
		return listFlag, nil
	}
	return a.prefs.SelectedList(userID)
}

// editorFor signs in, picks the list and loads it.
func (a *app) editorFor(ctx context.Context) (*editor.Editor, string, error) {
	userID, err := a.userID(ctx)
	if err != nil {
		return nil, "", err
	}
	listID, err := a.listID(userID)
	if err != nil {
		return nil, "", err
	}
	if _, err := a.cache.Load(ctx, listID); err != nil {
		return nil, "", fmt.Errorf("load list: %w", err)
	}
	return editor.New(listID, a.cache, a.coord, a.logger.With("component", "editor")), userID, nil
}
