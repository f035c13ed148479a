package cli

import (
	"github.com/spf13/cobra"

	"journey-cli/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ~/.journey/config.yaml",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config (no-op if one exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.Init()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": path, "created": created}})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration (file plus environment)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			path, _ := config.Path()
			return writeOut(cmd, app, map[string]any{"data": configView(cfg), "path": path})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one key in config.yaml",
		Long:  "Known keys: api_url, request_timeout, log_level, log_file, upload_max_bytes, format, tui.markdown_style.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, errUsage("%v", err))
			}
			if err := config.Save(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": configView(cfg)})
		},
	})

	return cmd
}

func configView(cfg *config.Config) map[string]any {
	return map[string]any{
		"api_url":            cfg.APIURL,
		"request_timeout":    cfg.RequestTimeout.String(),
		"log_level":          cfg.LogLevel,
		"log_file":           cfg.LogFile,
		"upload_max_bytes":   cfg.UploadMaxBytes,
		"format":             cfg.Format,
		"tui.markdown_style": cfg.TUI.MarkdownStyle,
	}
}
