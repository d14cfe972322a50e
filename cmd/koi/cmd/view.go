package cmd

import (
	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/internal/tui/viewer"
)

func newViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <file>",
		Short: "Browse the commands of a file interactively",
		Long: `Opens an interactive viewer listing the commands of a file.

Keys:
  j/k, Up/Down  scroll
  g/G           top / bottom
  e             show only malformed commands
  r             re-parse the file
  q, Ctrl+C     quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// parser diagnostics would draw over the screen
			return viewer.Run(args[0], viewer.Options{
				Parser:   a.cfg.ParserOptions(mdwlog.Discard()),
				Encoding: a.cfg.Input.Encoding,
			})
		},
	}
}
