package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"journey-cli/internal/board"
	"journey-cli/internal/publish"
)

func newBoardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List and create journey boards",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your boards (newest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			boards, err := board.NewCollection(app.client, app.sess, app.logger).List(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": boards})
		},
	})

	var title string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a board with a starter stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(title) == "" {
				return writeErr(cmd, errUsage("--title is required"))
			}
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			id, err := board.NewCollection(app.client, app.sess, app.logger).Create(ctx, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"id": id, "title": strings.TrimSpace(title)},
				"_hints": []string{"journey board show " + id, "journey " + id},
			})
		},
	}
	create.Flags().StringVar(&title, "title", "", "Board title")
	cmd.AddCommand(create)

	return cmd
}

func newBoardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect or open one board",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board's stages and items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.openBoard(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			snap := v.Snapshot()
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"id":     snap.BoardID,
				"stages": snap.Stages,
			}})
		},
	})

	var to string
	var overwrite bool
	publishCmd := &cobra.Command{
		Use:   "publish <board-id>",
		Short: "Write a board out as markdown files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := app.openBoard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			title := ""
			if boards, err := board.NewCollection(app.client, app.sess, app.logger).List(ctx); err == nil {
				for _, b := range boards {
					if b.ID == v.BoardID() {
						title = b.Title
					}
				}
			}
			res, err := publish.WriteBoard(v.BoardID(), v.Snapshot().Stages, to, publish.WriteOptions{Title: title, Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	publishCmd.Flags().StringVar(&to, "to", "", "Output directory")
	publishCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	_ = publishCmd.MarkFlagRequired("to")
	cmd.AddCommand(publishCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "open <board-id>",
		Short: "Open a board in the TUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app, args[0])
		},
	})

	return cmd
}

// openBoard loads boardID into a fresh view; the caller closes it.
func (app *App) openBoard(ctx context.Context, boardID string) (*board.View, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, errUsage("board id is required")
	}
	if err := app.requireLogin(ctx); err != nil {
		return nil, err
	}
	v := board.NewView(boardID, app.client, app.sess, app.logger)
	if err := v.Load(ctx); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}
