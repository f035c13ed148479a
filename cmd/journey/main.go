package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"journey-cli/internal/cli"
)

// commandNames lists every top-level word cobra would treat as a subcommand.
func commandNames(root *cobra.Command) map[string]bool {
	known := map[string]bool{"help": true, "completion": true}
	for _, c := range root.Commands() {
		known[c.Name()] = true
		for _, a := range c.Aliases {
			known[a] = true
		}
	}
	return known
}

// rewriteBoardShortcut turns `journey <board-id>` into `journey board open <board-id>`.
// Cobra treats the first positional token as a subcommand, so argv is rewritten before
// parsing. Persistent flags may come first, so the first positional token is located.
func rewriteBoardShortcut(argv []string, known map[string]bool) []string {
	if len(argv) < 2 {
		return argv
	}
	valueFlags := map[string]bool{
		"--api-url": true,
		"--format":  true,
	}

	rewrite := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "board", "open")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && !known[argv[i+1]] {
				return rewrite(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if known[a] {
			return argv
		}
		return rewrite(i)
	}
	return argv
}

func main() {
	cmd := cli.NewRootCmd()
	os.Args = rewriteBoardShortcut(os.Args, commandNames(cmd))
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
