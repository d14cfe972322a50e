package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/koi/foundation/koi/parser"
)

func newParseCmd(a *app) *cobra.Command {
	var traceback bool

	c := &cobra.Command{
		Use:   "parse [file]",
		Short: "List the commands of a KoiLang file",
		Long: `Parses a KoiLang file (or stdin) and prints one line per command.
Malformed commands are reported in place and parsing continues. The exit
status is 1 when any command was malformed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, source, err := a.readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}

			p, err := parser.New(text, a.cfg.ParserOptions(a.logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for c, perr := range p.All() {
				if perr != nil {
					fmt.Fprintf(out, "%s: %v\n", source, perr)
					var pe *parser.ParseError
					if traceback && errors.As(perr, &pe) {
						fmt.Fprintln(out, pe.Traceback())
					}
					continue
				}
				fmt.Fprintln(out, c.String())
			}

			stats := p.Stats()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d commands, %d errors, %d lines\n",
				source, stats.Commands, stats.Errors, stats.Lines)
			if stats.Errors > 0 {
				return errParseErrors
			}
			return nil
		},
	}

	c.Flags().BoolVar(&traceback, "traceback", true, "show the source line under each error")
	return c
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
