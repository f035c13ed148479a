package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"journey-cli/internal/api"
	"journey-cli/internal/model"
)

func readSecret(cmd *cobra.Command, flagValue, envKey, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := envOr(envKey, ""); v != "" {
		return v, nil
	}
	_, _ = cmd.ErrOrStderr().Write([]byte(prompt))
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" && err != nil {
		return "", errUsage("password required (--password or %s)", envKey)
	}
	return line, nil
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.load(ctx); err != nil {
				return writeErr(cmd, err)
			}
			pw, err := readSecret(cmd, password, "JOURNEY_PASSWORD", "Password: ")
			if err != nil {
				return writeErr(cmd, err)
			}
			u, err := app.sess.Login(ctx, email, pw)
			if err != nil {
				return writeErr(cmd, loginError(err))
			}
			out := map[string]any{"user": u}
			if exp, ok := app.sess.ExpiresAt(); ok {
				out["expires_at"] = model.NewTimestamp(exp)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (or JOURNEY_PASSWORD, or read from stdin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignupCmd(app *App) *cobra.Command {
	var nu model.NewUser
	var role, interests string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account (does not sign in)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.load(ctx); err != nil {
				return writeErr(cmd, err)
			}
			pw, err := readSecret(cmd, nu.Password, "JOURNEY_PASSWORD", "Password: ")
			if err != nil {
				return writeErr(cmd, err)
			}
			nu.Password = pw
			nu.Role = model.Role(role)
			nu.Interests = model.SplitInterests(interests)
			u, err := app.sess.Signup(ctx, nu)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   u,
				"_hints": []string{"journey login --email " + u.Email},
			})
		},
	}

	cmd.Flags().StringVar(&nu.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&nu.Email, "email", "", "Email")
	cmd.Flags().StringVar(&nu.Password, "password", "", "Password (or JOURNEY_PASSWORD, or read from stdin)")
	cmd.Flags().StringVar(&role, "role", "", "discipler|disciple")
	cmd.Flags().IntVar(&nu.Age, "age", 0, "Age")
	cmd.Flags().StringVar(&nu.Location, "location", "", "Location")
	cmd.Flags().StringVar(&interests, "interests", "", "Comma-separated interests")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.load(ctx); err != nil {
				return writeErr(cmd, err)
			}
			if err := app.sess.Logout(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"logged_out": true}})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			u, _ := app.sess.User()
			out := map[string]any{"user": u}
			if exp, ok := app.sess.ExpiresAt(); ok {
				out["expires_at"] = model.NewTimestamp(exp)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

// loginError keeps a rejected login from reading as "not logged in".
func loginError(err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("login failed: %s", api.DetailOf(err))
	}
	return err
}
