package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/koi/foundation/koi"
	"github.com/msto63/koi/foundation/koi/writer"
	"github.com/msto63/koi/internal/store"
)

func newArchiveCmd(a *app) *cobra.Command {
	var dbPath string

	c := &cobra.Command{
		Use:   "archive",
		Short: "Store and replay parse runs",
		Long: `Keeps parse runs in a SQLite archive.

  koi archive save scene.koi   # parse and store, prints the run id
  koi archive list             # newest runs first
  koi archive show <id>        # print the stored commands as KoiLang
  koi archive delete <id>`,
	}
	c.PersistentFlags().StringVar(&dbPath, "db", "", "archive database (default: store.path from config)")

	open := func() (store.Store, error) {
		path := a.cfg.Store.Path
		if dbPath != "" {
			path = dbPath
		}
		return store.NewSQLiteStore(path)
	}

	c.AddCommand(
		newArchiveSaveCmd(a, open),
		newArchiveListCmd(open),
		newArchiveShowCmd(a, open),
		newArchiveDeleteCmd(open),
	)
	return c
}

type storeOpener func() (store.Store, error)

func newArchiveSaveCmd(a *app, open storeOpener) *cobra.Command {
	var source string

	c := &cobra.Command{
		Use:   "save [file]",
		Short: "Parse a file and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, src, err := a.readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			if source != "" {
				src = source
			}

			res, err := koi.Collect(text, koi.WithOptions(a.cfg.ParserOptions(a.logger)))
			if err != nil {
				return err
			}

			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			run := store.Run{
				Source:    src,
				Threshold: a.cfg.Parser.CommandThreshold,
				Commands:  res.Commands,
			}
			for _, e := range res.Errors {
				run.Errors = append(run.Errors, e.Error())
			}

			id, err := s.SaveRun(cmd.Context(), run)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	c.Flags().StringVar(&source, "source", "", "source name stored with the run (default: file name)")
	return c
}

func newArchiveListCmd(open storeOpener) *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSOURCE\tCREATED\tCOMMANDS\tERRORS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.Source, r.CreatedAt.Local().Format(time.DateTime), r.Commands, r.Errors)
			}
			return tw.Flush()
		},
	}

	c.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 = all)")
	return c
}

func newArchiveShowCmd(a *app, open storeOpener) *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}

			opts := a.cfg.WriterOptions()
			opts.CommandThreshold = run.Threshold
			w, err := writer.New(out, opts)
			if err != nil {
				return err
			}
			if err := w.WriteAll(run.Commands); err != nil {
				return err
			}
			for _, e := range run.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", run.Source, e)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	return c
}

func newArchiveDeleteCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
