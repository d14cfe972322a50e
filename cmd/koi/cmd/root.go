package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi/input"
	"github.com/msto63/koi/pkg/core/config"
	"github.com/msto63/koi/pkg/core/logging"
)

// errParseErrors is returned after malformed commands have been reported,
// so the process exits non-zero without printing them twice
var errParseErrors = errors.New("input contains malformed commands")

// app holds the state shared by all subcommands of one invocation
type app struct {
	cfgFile   string
	logLevel  string
	threshold int

	cfg    *config.Config
	logger *mdwlog.Logger
	closer io.Closer
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "koi",
		Short: "koi - KoiLang command parser",
		Long: `koi reads KoiLang text, where lines starting with '#' are commands
and every other line is plain text.

Commands:
  parse      - list the commands of a file
  to-json    - convert commands to JSON
  from-json  - write JSON commands back as KoiLang
  archive    - store and replay parse runs
  serve      - live parse server (websocket)
  watch      - re-parse files when they change
  view       - interactive command viewer`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $KOI_CONFIG, ./koi.toml, ./koi.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&a.threshold, "threshold", 0, "number of '#' that start a command (overrides config)")

	rootCmd.AddCommand(
		newParseCmd(a),
		newToJSONCmd(a),
		newFromJSONCmd(a),
		newArchiveCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newViewCmd(a),
		newVersionCmd(),
	)
	return rootCmd, a
}

// Execute runs the CLI
func Execute() error {
	err := execute(newRootCmd())
	if err != nil && !errors.Is(err, errParseErrors) {
		printError(err)
	}
	return err
}

// setup loads the configuration and builds the logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.Load(a.cfgFile)
	} else {
		a.cfg, _, err = config.Discover()
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	if a.threshold != 0 {
		a.cfg.Parser.CommandThreshold = a.threshold
		a.cfg.Writer.CommandThreshold = a.threshold
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger, a.closer, err = logging.NewLogger(logging.LoggerConfig{
		ServiceName: "koi",
		Level:       a.cfg.Log.Level,
		Format:      a.cfg.Log.Format,
		File:        a.cfg.Log.File,
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	mdwlog.SetDefault(a.logger)
	return nil
}

// execute runs root, then closes the log file whether or not root failed
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

// close releases the log file, if one was opened
func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// readInput decodes the named file, or stdin for "" and "-"
func (a *app) readInput(cmd *cobra.Command, path string) (text, source string, err error) {
	if path == "" || path == "-" {
		text, err = input.ReadAll(cmd.InOrStdin(), a.cfg.Input.Encoding)
		return text, "<stdin>", err
	}
	text, err = input.ReadFile(path, a.cfg.Input.Encoding)
	return text, path, err
}

// openOutput opens the named file, or stdout for "" and "-". The returned
// close function must be called.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
