package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi"
	"github.com/msto63/koi/foundation/koi/command"
	"github.com/msto63/koi/foundation/koi/input"
	"github.com/msto63/koi/foundation/koi/parser"
	"github.com/msto63/koi/foundation/koi/writer"
)

// document is the JSON form of a parsed file
type document struct {
	Source    string             `json:"source,omitempty"`
	Threshold int                `json:"threshold"`
	Commands  []*command.Command `json:"commands"`
	Errors    []documentError    `json:"errors"`
	Stats     documentStats      `json:"stats"`
}

type documentError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Offset  int    `json:"offset"`
	Source  string `json:"source"`
}

type documentStats struct {
	Commands int `json:"commands"`
	Errors   int `json:"errors"`
	Lines    int `json:"lines"`
}

func newDocument(source string, threshold int, res koi.Result) document {
	doc := document{
		Source:    source,
		Threshold: threshold,
		Commands:  res.Commands,
		Errors:    make([]documentError, 0, len(res.Errors)),
		Stats: documentStats{
			Commands: res.Stats.Commands,
			Errors:   res.Stats.Errors,
			Lines:    res.Stats.Lines,
		},
	}
	if doc.Commands == nil {
		doc.Commands = []*command.Command{}
	}
	for _, e := range res.Errors {
		kind := "command"
		if errors.Is(e, parser.ErrMalformedParameter) {
			kind = "parameter"
		}
		doc.Errors = append(doc.Errors, documentError{
			Kind:    kind,
			Message: e.Message,
			Line:    e.Line,
			Column:  e.Column,
			Offset:  e.Offset,
			Source:  e.Source,
		})
	}
	return doc
}

// decodeCommands accepts a document or a bare array of commands
func decodeCommands(data []byte) ([]*command.Command, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var cmds []*command.Command
		if err := json.Unmarshal(data, &cmds); err != nil {
			return nil, invalidJSON(err)
		}
		return cmds, checkCommands(cmds)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalidJSON(err)
	}
	return doc.Commands, checkCommands(doc.Commands)
}

// checkCommands rejects null entries
func checkCommands(cmds []*command.Command) error {
	for i, cmd := range cmds {
		if cmd == nil {
			return invalidJSON(errNullCommand).WithDetail("index", i)
		}
	}
	return nil
}

var errNullCommand = errors.New("null command")

func invalidJSON(err error) *mdwerror.Error {
	return mdwerror.Wrap(err, "invalid command JSON").
		WithCode(mdwerror.CodeInvalidInput).
		WithOperation("cmd.from-json")
}

func newToJSONCmd(a *app) *cobra.Command {
	var (
		inPath  string
		outPath string
		pretty  bool
		strict  bool
	)

	c := &cobra.Command{
		Use:   "to-json [file]",
		Short: "Convert the commands of a KoiLang file to JSON",
		Long: `Parses KoiLang and writes a JSON document with the commands, the
malformed spans and parse statistics. With --strict the exit status is 1
when any command was malformed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPath == "" {
				inPath = firstArg(args)
			}
			text, source, err := a.readInput(cmd, inPath)
			if err != nil {
				return err
			}

			res, err := koi.Collect(text, koi.WithOptions(a.cfg.ParserOptions(a.logger)))
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(cmd, outPath)
			if err != nil {
				return err
			}
			defer closeOut()

			enc := json.NewEncoder(out)
			if pretty {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(newDocument(source, a.cfg.Parser.CommandThreshold, res)); err != nil {
				return fmt.Errorf("encode json: %w", err)
			}

			a.logger.Info("converted to json", mdwlog.Fields{
				"source":   source,
				"commands": len(res.Commands),
				"errors":   len(res.Errors),
			})
			if strict && !res.OK() {
				return errParseErrors
			}
			return nil
		},
	}

	c.Flags().StringVarP(&inPath, "input", "i", "", "input file (default: stdin)")
	c.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	c.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	c.Flags().BoolVar(&strict, "strict", false, "fail when any command is malformed")
	return c
}

func newFromJSONCmd(a *app) *cobra.Command {
	var (
		inPath  string
		outPath string
	)

	c := &cobra.Command{
		Use:   "from-json [file]",
		Short: "Write JSON commands back as KoiLang",
		Long: `Reads a document written by to-json, or a bare JSON array of
commands, and writes it as KoiLang that parses back to the same commands.
Output is encoded with the configured input encoding.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPath == "" {
				inPath = firstArg(args)
			}

			data, err := readRaw(cmd, inPath)
			if err != nil {
				return err
			}
			cmds, err := decodeCommands(data)
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(cmd, outPath)
			if err != nil {
				return err
			}
			defer closeOut()

			encoded, err := input.NewWriter(out, a.cfg.Input.Encoding)
			if err != nil {
				return err
			}

			w, err := writer.New(encoded, a.cfg.WriterOptions())
			if err != nil {
				return err
			}
			if err := w.WriteAll(cmds); err != nil {
				return err
			}
			return encoded.Close()
		},
	}

	c.Flags().StringVarP(&inPath, "input", "i", "", "input file (default: stdin)")
	c.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	return c
}

// readRaw reads JSON input without decoding a text encoding
func readRaw(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		text, err := input.ReadFile(path, "utf-8")
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to read stdin").WithCode(mdwerror.CodeIOError)
	}
	return data, nil
}
