package cli

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"journey-cli/internal/board"
	"journey-cli/internal/editor"
	"journey-cli/internal/model"
	"journey-cli/internal/tui"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Create, inspect, move and edit items",
	}
	cmd.AddCommand(newItemsCreateCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsEditCmd(app))
	return cmd
}

func newItemsCreateCmd(app *App) *cobra.Command {
	var stageID, content string
	cmd := &cobra.Command{
		Use:   "create <board-id>",
		Short: "Add an item to the end of a stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(content) == "" {
				return writeErr(cmd, errUsage("--content is required"))
			}
			ctx := cmd.Context()
			v, err := app.openBoard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			if _, ok := v.Snapshot().Stage(stageID); !ok {
				return writeErr(cmd, errNotFound("stage", stageID))
			}
			it, err := v.CreateItem(ctx, stageID, content)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   it,
				"_hints": []string{fmt.Sprintf("journey items edit %s %s --description ...", v.BoardID(), it.ID)},
			})
		},
	}
	cmd.Flags().StringVar(&stageID, "stage", "", "Stage id")
	cmd.Flags().StringVar(&content, "content", "", "Item title")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	var render bool
	var width int
	cmd := &cobra.Command{
		Use:   "show <board-id> <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.openBoard(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			it, ok := v.Snapshot().FindItem(args[1])
			if !ok {
				return writeErr(cmd, errNotFound("item", args[1]))
			}
			if render {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), tui.RenderItem(it, width, app.cfg.TUI.MarkdownStyle))
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render for reading (markdown description) instead of structured output")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id> <item-id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := app.openBoard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			it, ok := v.Snapshot().FindItem(args[1])
			if !ok {
				return writeErr(cmd, errNotFound("item", args[1]))
			}
			if err := v.DeleteItem(ctx, it.StageID, it.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": it.ID, "stage_id": it.StageID}})
		},
	}
}

func newItemsMoveCmd(app *App) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "move <board-id> <item-id>",
		Short: "Move an item to another stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := app.openBoard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			snap := v.Snapshot()
			it, ok := snap.FindItem(args[1])
			if !ok {
				return writeErr(cmd, errNotFound("item", args[1]))
			}
			if _, ok := snap.Stage(to); !ok {
				return writeErr(cmd, errNotFound("stage", to))
			}
			if err := v.Drop(ctx, board.DragPayload{ItemID: it.ID, SourceStageID: it.StageID}, to); err != nil {
				return writeErr(cmd, err)
			}
			moved, _ := v.Snapshot().FindItem(it.ID)
			return writeOut(cmd, app, map[string]any{"data": moved})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target stage id")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newItemsEditCmd(app *App) *cobra.Command {
	var (
		description string
		status      string
		addSubtasks []string
		toggles     []int
		removes     []int
		activity    string
		attach      string
	)
	cmd := &cobra.Command{
		Use:   "edit <board-id> <item-id>",
		Short: "Edit an item's details and save them in one request",
		Example: strings.TrimSpace(`
  journey items edit my-board item_123 --status Done
  journey items edit my-board item_123 --add-subtask "Read chapter 1" --add-subtask "Pray"
  journey items edit my-board item_123 --toggle-subtask 1
  journey items edit my-board item_123 --activity "Finished" --attach notes.pdf
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := app.openBoard(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer v.Close()
			it, ok := v.Snapshot().FindItem(args[1])
			if !ok {
				return writeErr(cmd, errNotFound("item", args[1]))
			}

			ed := editor.New(it, v, app.client, app.logger, editor.WithMaxUpload(app.cfg.UploadMaxBytes))
			if cmd.Flags().Changed("description") {
				if err := ed.SetDescription(description); err != nil {
					return writeErr(cmd, err)
				}
			}
			if cmd.Flags().Changed("status") {
				st, err := model.ParseStatus(status)
				if err != nil {
					return writeErr(cmd, errUsage("invalid --status %q (want one of: %s)", status, statusNames()))
				}
				if err := ed.SetStatus(st); err != nil {
					return writeErr(cmd, err)
				}
			}
			for _, n := range toggles {
				if err := ed.ToggleSubtask(n - 1); err != nil {
					return writeErr(cmd, errUsage("--toggle-subtask %d: %v", n, err))
				}
			}
			// Highest index first so the remaining numbers still match what the user saw.
			// A repeated index names the same subtask and removes it once.
			sort.Sort(sort.Reverse(sort.IntSlice(removes)))
			for _, n := range slices.Compact(removes) {
				if err := ed.RemoveSubtask(n - 1); err != nil {
					return writeErr(cmd, errUsage("--remove-subtask %d: %v", n, err))
				}
			}
			for _, s := range addSubtasks {
				if err := ed.AddSubtask(s); err != nil {
					return writeErr(cmd, err)
				}
			}
			if activity != "" || attach != "" {
				var up *editor.Upload
				if attach != "" {
					u, closer, err := editor.OpenUpload(attach)
					if err != nil {
						return writeErr(cmd, err)
					}
					defer closer.Close()
					up = u
				}
				if err := ed.AddActivity(ctx, activity, up); err != nil {
					return writeErr(cmd, err)
				}
			}

			saved, err := ed.Save(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": saved})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Replace the description (markdown)")
	cmd.Flags().StringVar(&status, "status", "", "In Progress|Done|Skipped")
	cmd.Flags().StringArrayVar(&addSubtasks, "add-subtask", nil, "Append a subtask (repeatable)")
	cmd.Flags().IntSliceVar(&toggles, "toggle-subtask", nil, "Toggle subtask N, 1-based (repeatable)")
	cmd.Flags().IntSliceVar(&removes, "remove-subtask", nil, "Remove subtask N, 1-based (repeatable)")
	cmd.Flags().StringVar(&activity, "activity", "", "Append an activity note")
	cmd.Flags().StringVar(&attach, "attach", "", "Attach a file to the new activity")
	return cmd
}

func statusNames() string {
	names := make([]string, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
