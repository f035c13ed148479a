package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"journey-cli/internal/api"
	"journey-cli/internal/config"
	"journey-cli/internal/format"
	"journey-cli/internal/logging"
	"journey-cli/internal/session"
)

type App struct {
	APIURL     string
	PrettyJSON bool
	Format     string

	cfg       *config.Config
	logger    *log.Logger
	logCloser io.Closer
	client    *api.Client
	sess      *session.Session
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "journey",
		Short:        "Spiritual Journey terminal client (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  journey

  # Sign in once; the session is remembered
  journey login --email you@example.com

  # Scriptable commands
  journey boards list
  journey items move my-board item_123 --to done_my-board

  # Open a board directly (shortcut for: journey board open <board-id>)
  journey my-board
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app, "")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.Close()
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "API base URL (overrides api_url in config.yaml and JOURNEY_API_URL)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "", "Output format (json|yaml|text; default from config)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newBoardsCmd(app))
	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newStagesCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newMatchesCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newDiscipleshipCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// load reads config and opens the log, API client and session once per invocation.
func (app *App) load(ctx context.Context) error {
	if app.sess != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(app.APIURL); v != "" {
		cfg.APIURL = v
	}
	if app.Format == "" {
		app.Format = cfg.Format
	}
	app.cfg = cfg

	logger := logging.Discard()
	if path, err := cfg.LogPath(); err == nil {
		if l, closer, err := logging.New(path, cfg.LogLevel); err == nil {
			logger, app.logCloser = l, closer
		}
	}
	app.logger = logger

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	client := api.New(cfg.APIURL, cfg.RequestTimeout, nil, logger)
	sess, err := session.Open(ctx, dir, client, logger)
	if err != nil {
		return err
	}
	app.client = client.WithTokens(sess)
	app.sess = sess
	return nil
}

// requireLogin loads the session and fails fast without a usable credential.
func (app *App) requireLogin(ctx context.Context) error {
	if err := app.load(ctx); err != nil {
		return err
	}
	if !app.sess.Authenticated() {
		return session.ErrLoginRequired
	}
	return nil
}

func (app *App) Close() error {
	var errs []error
	if app.sess != nil {
		errs = append(errs, app.sess.Close())
		app.sess = nil
	}
	if app.logCloser != nil {
		errs = append(errs, app.logCloser.Close())
		app.logCloser = nil
	}
	return errors.Join(errs...)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	f := app.Format
	if f == "" {
		f = envOr("JOURNEY_FORMAT", "json")
	}
	return format.Write(cmd.OutOrStdout(), v, f, app.PrettyJSON)
}

// writeErr prints the server's message when there is one, the error otherwise.
func writeErr(cmd *cobra.Command, err error) error {
	msg := err.Error()
	var se *api.StatusError
	if errors.As(err, &se) && !errors.Is(err, api.ErrUnauthorized) {
		msg = fmt.Sprintf("error: %s (HTTP %d)", se.Message(), se.Status)
	}
	if api.IsUnauthorized(err) {
		err = session.ErrLoginRequired
		msg = err.Error()
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
	return err
}
