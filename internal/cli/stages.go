package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"journey-cli/internal/board"
)

func newStagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Add or remove board stages",
	}

	var title string
	create := &cobra.Command{
		Use:   "create <board-id>",
		Short: "Append a stage to a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return writeErr(cmd, errUsage("--title is required"))
			}
			ctx := cmd.Context()
			v, err := app.openBoard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			if err := v.CreateStage(ctx, title); err != nil {
				return writeErr(cmd, err)
			}
			snap := v.Snapshot()
			if st, ok := snap.Stage(board.Slug(title) + "_" + v.BoardID()); ok {
				return writeOut(cmd, app, map[string]any{"data": st})
			}
			return writeOut(cmd, app, map[string]any{"data": snap.Stages})
		},
	}
	create.Flags().StringVar(&title, "title", "", "Stage title")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <board-id> <stage-id>",
		Short: "Delete a stage and every item in it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := app.openBoard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			if _, ok := v.Snapshot().Stage(args[1]); !ok {
				return writeErr(cmd, errNotFound("stage", args[1]))
			}
			if err := v.DeleteStage(ctx, args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[1]}})
		},
	})

	return cmd
}
