package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/koi/foundation/koi"
	"github.com/msto63/koi/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var initial bool

	c := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-parse files whenever they change",
		Long: `Watches KoiLang files and prints a summary with every malformed
command each time a file is saved. Stop with Ctrl+C.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			report := func(path string, res koi.Result) {
				fmt.Fprintf(out, "%s: %d commands, %d errors\n", path, len(res.Commands), len(res.Errors))
				for _, e := range res.Errors {
					fmt.Fprintf(out, "  %v\n", e)
				}
			}

			opts := []watch.Option{
				watch.WithParserOptions(a.cfg.ParserOptions(a.logger)),
				watch.WithEncoding(a.cfg.Input.Encoding),
				watch.WithErrorHandler(func(path string, err error) {
					fmt.Fprintf(out, "%s: %v\n", path, err)
				}),
			}
			if initial {
				opts = append(opts, watch.WithInitialParse())
			}

			w, err := watch.New(args, a.cfg.Watch.Debounce.Duration, report, a.logger, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return w.Run(ctx)
		},
	}

	c.Flags().BoolVar(&initial, "initial", true, "parse every file once at start")
	return c
}
