// ============================================================================
// koi - KoiLang command parser
// ============================================================================
//
// Package:     config
// Description: Typed configuration loaded from TOML or YAML plus KOI_* env
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi/input"
	"github.com/msto63/koi/foundation/koi/parser"
	"github.com/msto63/koi/foundation/koi/writer"
)

// EnvConfigPath names the variable that points Discover at a config file
const EnvConfigPath = "KOI_CONFIG"

// Config holds the complete application configuration
type Config struct {
	Parser ParserConfig `toml:"parser" yaml:"parser"`
	Input  InputConfig  `toml:"input" yaml:"input"`
	Writer WriterConfig `toml:"writer" yaml:"writer"`
	Log    LogConfig    `toml:"log" yaml:"log"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Server ServerConfig `toml:"server" yaml:"server"`
	Watch  WatchConfig  `toml:"watch" yaml:"watch"`
}

// ParserConfig holds the parser options
type ParserConfig struct {
	CommandThreshold int  `toml:"command_threshold" yaml:"command_threshold" env:"KOI_PARSER_COMMAND_THRESHOLD"`
	AllowIndent      bool `toml:"allow_indent" yaml:"allow_indent" env:"KOI_PARSER_ALLOW_INDENT"`
	LineContinuation bool `toml:"line_continuation" yaml:"line_continuation" env:"KOI_PARSER_LINE_CONTINUATION"`
	MaxLineLength    int  `toml:"max_line_length" yaml:"max_line_length" env:"KOI_PARSER_MAX_LINE_LENGTH"`
	NumberCommands   bool `toml:"number_commands" yaml:"number_commands" env:"KOI_PARSER_NUMBER_COMMANDS"`
}

// InputConfig holds input decoding settings
type InputConfig struct {
	Encoding string `toml:"encoding" yaml:"encoding" env:"KOI_INPUT_ENCODING"`
}

// WriterConfig holds the writer layout
type WriterConfig struct {
	Indent           int  `toml:"indent" yaml:"indent" env:"KOI_WRITER_INDENT"`
	UseTabs          bool `toml:"use_tabs" yaml:"use_tabs" env:"KOI_WRITER_USE_TABS"`
	CommandThreshold int  `toml:"command_threshold" yaml:"command_threshold" env:"KOI_WRITER_COMMAND_THRESHOLD"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" env:"KOI_LOG_LEVEL"`
	Format string `toml:"format" yaml:"format" env:"KOI_LOG_FORMAT"`
	File   string `toml:"file" yaml:"file" env:"KOI_LOG_FILE"`
}

// StoreConfig holds the parse archive location
type StoreConfig struct {
	Path string `toml:"path" yaml:"path" env:"KOI_STORE_PATH"`
}

// ServerConfig holds the live parse server settings
type ServerConfig struct {
	Addr         string   `toml:"addr" yaml:"addr" env:"KOI_SERVER_ADDR"`
	ReadTimeout  Duration `toml:"read_timeout" yaml:"read_timeout" env:"KOI_SERVER_READ_TIMEOUT"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout" env:"KOI_SERVER_WRITE_TIMEOUT"`
	CacheSize    int      `toml:"cache_size" yaml:"cache_size" env:"KOI_SERVER_CACHE_SIZE"`
	CacheTTL     Duration `toml:"cache_ttl" yaml:"cache_ttl" env:"KOI_SERVER_CACHE_TTL"`
}

// WatchConfig holds file watcher settings
type WatchConfig struct {
	Debounce Duration `toml:"debounce" yaml:"debounce" env:"KOI_WATCH_DEBOUNCE"`
}

// Duration wraps time.Duration for TOML, YAML and env parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		Parser: ParserConfig{
			CommandThreshold: parser.DefaultCommandThreshold,
			AllowIndent:      true,
			LineContinuation: true,
		},
		Writer: WriterConfig{
			Indent:           4,
			CommandThreshold: 1,
		},
		Server: ServerConfig{
			CacheSize: 256,
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension,
// then applies KOI_* environment overrides
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, configError(err, "config file not found", path)
		}
		return nil, configError(err, "failed to read config", path)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, configError(err, "failed to parse config", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, configError(err, "failed to parse config", path)
		}
	default:
		return nil, mdwerror.New("unsupported config format").
			WithCode(mdwerror.CodeConfigError).
			WithOperation("config.Load").
			WithDetail("path", path).
			WithDetail("format", ext)
	}

	return finish(cfg)
}

// LoadFromEnv returns the defaults with KOI_* environment overrides
func LoadFromEnv() (*Config, error) {
	return finish(Default())
}

// Discover loads the first config file found in $KOI_CONFIG, ./koi.toml,
// ./koi.yaml or $HOME/.config/koi/config.toml. Without one it falls back to
// LoadFromEnv. The returned path is empty in that case.
func Discover() (*Config, string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}

	candidates := []string{"./koi.toml", "./koi.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "koi", "config.toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}

	cfg, err := LoadFromEnv()
	return cfg, "", err
}

func finish(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, mdwerror.Wrap(err, "parse env").
			WithCode(mdwerror.CodeConfigError).
			WithOperation("config.Load")
	}
	cfg.applyDefaults()
	cfg.expandEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configError(err error, msg, path string) error {
	return mdwerror.Wrap(err, msg).
		WithCode(mdwerror.CodeConfigError).
		WithOperation("config.Load").
		WithDetail("path", path)
}

// applyDefaults sets default values for missing configuration. Numeric
// zero values are left for Validate to reject.
func (c *Config) applyDefaults() {
	if c.Input.Encoding == "" {
		c.Input.Encoding = "utf-8"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Store.Path == "" {
		c.Store.Path = "./data/koi.db"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8765"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Server.CacheTTL.Duration == 0 {
		c.Server.CacheTTL.Duration = 5 * time.Minute
	}

	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce.Duration = 200 * time.Millisecond
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Log.File = os.ExpandEnv(c.Log.File)
}

// Validate checks the configuration for values the engine would reject
func (c *Config) Validate() error {
	fail := func(key string, value interface{}, msg string) error {
		return mdwerror.New(msg).
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.Validate").
			WithDetail("key", key).
			WithDetail("value", value)
	}

	if c.Parser.CommandThreshold <= 0 {
		return fail("parser.command_threshold", c.Parser.CommandThreshold, "command threshold must be positive")
	}
	if c.Parser.MaxLineLength < 0 {
		return fail("parser.max_line_length", c.Parser.MaxLineLength, "max line length must not be negative")
	}
	if !input.Valid(c.Input.Encoding) {
		return fail("input.encoding", c.Input.Encoding, "unknown input encoding")
	}
	if c.Writer.Indent < 0 {
		return fail("writer.indent", c.Writer.Indent, "indent must not be negative")
	}
	if c.Writer.CommandThreshold <= 0 {
		return fail("writer.command_threshold", c.Writer.CommandThreshold, "command threshold must be positive")
	}
	if _, err := mdwlog.ParseLevel(c.Log.Level); err != nil {
		return fail("log.level", c.Log.Level, "unknown log level")
	}
	if _, err := mdwlog.ParseFormat(c.Log.Format); err != nil {
		return fail("log.format", c.Log.Format, "unknown log format")
	}
	if c.Server.CacheSize < 0 {
		return fail("server.cache_size", c.Server.CacheSize, "cache size must not be negative")
	}
	if c.Watch.Debounce.Duration < 0 {
		return fail("watch.debounce", c.Watch.Debounce.String(), "debounce must not be negative")
	}
	return nil
}

// ParserOptions projects the config onto parser options
func (c *Config) ParserOptions(logger *mdwlog.Logger) parser.Options {
	return parser.Options{
		CommandThreshold:     c.Parser.CommandThreshold,
		AllowIndent:          c.Parser.AllowIndent,
		LineContinuation:     c.Parser.LineContinuation,
		MaxLineLength:        c.Parser.MaxLineLength,
		ConvertNumberCommand: c.Parser.NumberCommands,
		Logger:               logger,
	}
}

// WriterOptions projects the config onto writer options
func (c *Config) WriterOptions() writer.Options {
	opts := writer.DefaultOptions()
	opts.Indent = c.Writer.Indent
	opts.UseTabs = c.Writer.UseTabs
	opts.CommandThreshold = c.Writer.CommandThreshold
	return opts
}
