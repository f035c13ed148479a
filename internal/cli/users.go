package cli

import (
	"github.com/spf13/cobra"

	"journey-cli/internal/matches"
)

func (app *App) matchesView() *matches.View {
	return matches.New(app.client, app.sess, app.logger)
}

func newMatchesCmd(app *App) *cobra.Command {
	var opposite bool
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Suggested people of the opposite role",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			mv := app.matchesView()
			if opposite {
				users, err := mv.OppositeRole(ctx)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": users})
			}
			st, err := mv.Suggestions(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]any{"data": st.Suggestions}
			if st.Empty {
				out["_hints"] = []string{matches.EmptyMessage}
			}
			return writeOut(cmd, app, out)
		},
	}
	cmd.Flags().BoolVar(&opposite, "opposite-role", false, "List every user of the opposite role instead of ranked suggestions")
	return cmd
}

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Look up user profiles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			u, err := app.matchesView().User(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": u})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "boards [user-id]",
		Short: "List the boards a user owns (defaults to you)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			me, _ := app.sess.User()
			userID := me.ID
			if len(args) == 1 {
				userID = args[0]
			}
			boards, err := app.matchesView().Boards(ctx, userID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": boards})
		},
	})
	return cmd
}

func newDiscipleshipCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discipleship",
		Short: "Link disciplers and disciples",
	}

	var disciplerID, discipleID string
	link := &cobra.Command{
		Use:   "link",
		Short: "Record that one user disciples another",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if err := app.matchesView().Link(ctx, disciplerID, discipleID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"discipler_id": disciplerID,
				"disciple_id":  discipleID,
			}})
		},
	}
	link.Flags().StringVar(&disciplerID, "discipler", "", "Discipler user id")
	link.Flags().StringVar(&discipleID, "disciple", "", "Disciple user id")
	_ = link.MarkFlagRequired("discipler")
	_ = link.MarkFlagRequired("disciple")
	cmd.AddCommand(link)

	cmd.AddCommand(&cobra.Command{
		Use:   "disciples <discipler-id>",
		Short: "List a discipler's disciples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			users, err := app.matchesView().Disciples(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": users})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "discipler <disciple-id>",
		Short: "Show a disciple's discipler (null when none)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireLogin(ctx); err != nil {
				return writeErr(cmd, err)
			}
			u, err := app.matchesView().Discipler(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": u})
		},
	})

	return cmd
}
