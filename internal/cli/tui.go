package cli

import (
	"github.com/spf13/cobra"

	"journey-cli/internal/tui"
)

func runTUI(cmd *cobra.Command, app *App, boardID string) error {
	ctx := cmd.Context()
	if err := app.load(ctx); err != nil {
		return writeErr(cmd, err)
	}
	err := tui.Run(ctx, tui.Options{
		Session:        app.sess,
		Remote:         app.client,
		Logger:         app.logger,
		BoardID:        boardID,
		MarkdownStyle:  app.cfg.TUI.MarkdownStyle,
		UploadMaxBytes: app.cfg.UploadMaxBytes,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
