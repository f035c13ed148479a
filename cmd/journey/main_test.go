package main

import (
	"reflect"
	"testing"

	"journey-cli/internal/cli"
)

func TestRewriteBoardShortcut(t *testing.T) {
	t.Parallel()

	known := commandNames(cli.NewRootCmd())

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"journey"},
			want: []string{"journey"},
		},
		{
			name: "board id first token",
			in:   []string{"journey", "my-board"},
			want: []string{"journey", "board", "open", "my-board"},
		},
		{
			name: "board id after value flag",
			in:   []string{"journey", "--api-url", "http://localhost:9000", "my-board"},
			want: []string{"journey", "--api-url", "http://localhost:9000", "board", "open", "my-board"},
		},
		{
			name: "board id after equals flag",
			in:   []string{"journey", "--format=yaml", "my-board"},
			want: []string{"journey", "--format=yaml", "board", "open", "my-board"},
		},
		{
			name: "board id after bool flag",
			in:   []string{"journey", "--pretty", "my-board"},
			want: []string{"journey", "--pretty", "board", "open", "my-board"},
		},
		{
			name: "board id after double dash",
			in:   []string{"journey", "--", "my-board"},
			want: []string{"journey", "--", "board", "open", "my-board"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"journey", "boards", "list"},
			want: []string{"journey", "boards", "list"},
		},
		{
			name: "alias not rewritten",
			in:   []string{"journey", "item", "show", "b", "i"},
			want: []string{"journey", "item", "show", "b", "i"},
		},
		{
			name: "help not rewritten",
			in:   []string{"journey", "help"},
			want: []string{"journey", "help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteBoardShortcut(tt.in, known)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteBoardShortcut(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
