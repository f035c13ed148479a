package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"journey-cli/internal/api"
	"journey-cli/internal/board"
	"journey-cli/internal/config"
)

var errDoctorIssues = errors.New("doctor found problems")

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check config, session and API reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var checks []doctorCheck

			path, _ := config.Path()
			if err := app.load(ctx); err != nil {
				checks = append(checks, doctorCheck{Name: "config", Detail: err.Error()})
				return finishDoctor(cmd, app, checks, fail)
			}
			checks = append(checks, doctorCheck{Name: "config", OK: true, Detail: path})
			checks = append(checks, doctorCheck{Name: "api_url", OK: app.cfg.APIURL != "", Detail: app.cfg.APIURL})

			if !app.sess.Authenticated() {
				checks = append(checks, doctorCheck{Name: "session", Detail: "not signed in"})
				return finishDoctor(cmd, app, checks, fail)
			}
			u, _ := app.sess.User()
			detail := u.Email
			if exp, ok := app.sess.ExpiresAt(); ok {
				detail += fmt.Sprintf(" (expires in %s)", time.Until(exp).Round(time.Minute))
			}
			checks = append(checks, doctorCheck{Name: "session", OK: true, Detail: detail})

			boards, err := board.NewCollection(app.client, app.sess, app.logger).List(ctx)
			if err != nil {
				checks = append(checks, doctorCheck{Name: "api", Detail: api.DetailOf(err)})
			} else {
				checks = append(checks, doctorCheck{Name: "api", OK: true, Detail: fmt.Sprintf("%d boards", len(boards))})
			}
			return finishDoctor(cmd, app, checks, fail)
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if any check fails")
	return cmd
}

func finishDoctor(cmd *cobra.Command, app *App, checks []doctorCheck, fail bool) error {
	bad := 0
	for _, c := range checks {
		if !c.OK {
			bad++
		}
	}
	if err := writeOut(cmd, app, map[string]any{
		"data":   checks,
		"meta":   map[string]any{"issues": bad},
		"_hints": []string{"journey config show", "journey login --email <you>"},
	}); err != nil {
		return err
	}
	if fail && bad > 0 {
		return errDoctorIssues
	}
	return nil
}
