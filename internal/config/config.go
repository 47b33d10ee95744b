// Package config provides configuration types and defaults for codepad.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zjrosen/codepad/internal/highlight"
	"github.com/zjrosen/codepad/internal/log"
	"github.com/zjrosen/codepad/internal/tracing"
)

// Config holds all configuration options for codepad.
type Config struct {
	CodeDir   string          `mapstructure:"code_dir"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Highlight HighlightConfig `mapstructure:"highlight"`
	History   HistoryConfig   `mapstructure:"history"`
	Compile   CompileConfig   `mapstructure:"compile"`
	UI        UIConfig        `mapstructure:"ui"`
	Theme     ThemeConfig     `mapstructure:"theme"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
}

// RulesConfig locates user rule overrides.
type RulesConfig struct {
	// Dir holds <language>.yaml files that replace the built-in rules.
	Dir string `mapstructure:"dir"`
}

// HighlightConfig tunes the highlight scheduler.
type HighlightConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// HistoryConfig bounds undo.
type HistoryConfig struct {
	Depth int `mapstructure:"depth"`
}

// CompileConfig controls the compile agent handshake.
type CompileConfig struct {
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	Interval     time.Duration `mapstructure:"interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	// Watch enables filesystem notifications so results are picked up
	// before the next poll.
	Watch bool `mapstructure:"watch"`
	// HistoryDB is the SQLite file finished jobs are recorded in. Empty
	// disables job history.
	HistoryDB string `mapstructure:"history_db"`
}

// UIConfig holds user interface options.
type UIConfig struct {
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// ThemeConfig overrides highlight colors per category.
type ThemeConfig struct {
	// Colors maps a category (keyword, operator, number, string, comment,
	// function) to a hex color.
	Colors map[string]string `mapstructure:"colors"`
}

// ConfigDir returns ~/.config/codepad, or "" if the home dir is unavailable.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "codepad")
}

// DefaultCodeDir returns the shared directory the compile agent watches.
func DefaultCodeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "codes"
	}
	return filepath.Join(home, "codes")
}

// DefaultHistoryDBPath returns the default job history database location.
func DefaultHistoryDBPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "jobs.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns the configuration used when no file sets a value.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		CodeDir:   DefaultCodeDir(),
		Highlight: HighlightConfig{Debounce: 100 * time.Millisecond},
		History:   HistoryConfig{Depth: 50},
		Compile: CompileConfig{
			InitialDelay: 2 * time.Second,
			Interval:     4 * time.Second,
			MaxAttempts:  30,
			Watch:        true,
			HistoryDB:    DefaultHistoryDBPath(),
		},
		UI: UIConfig{
			ShowStatusBar: true,
			MarkdownStyle: "dark",
		},
		Tracing: tc,
	}
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CodeDir) == "" {
		return fmt.Errorf("code_dir is required")
	}
	if c.Highlight.Debounce < 0 {
		return fmt.Errorf("highlight.debounce must not be negative, got %s", c.Highlight.Debounce)
	}
	if c.History.Depth < 1 {
		return fmt.Errorf("history.depth must be at least 1, got %d", c.History.Depth)
	}
	if err := ValidateCompile(c.Compile); err != nil {
		return err
	}
	if err := ValidateTheme(c.Theme); err != nil {
		return err
	}
	switch c.UI.MarkdownStyle {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", c.UI.MarkdownStyle)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateCompile checks the polling settings.
func ValidateCompile(cc CompileConfig) error {
	if cc.InitialDelay < 0 {
		return fmt.Errorf("compile.initial_delay must not be negative, got %s", cc.InitialDelay)
	}
	if cc.Interval <= 0 {
		return fmt.Errorf("compile.interval must be positive, got %s", cc.Interval)
	}
	if cc.MaxAttempts < 1 {
		return fmt.Errorf("compile.max_attempts must be at least 1, got %d", cc.MaxAttempts)
	}
	return nil
}

// ValidateTheme checks category names and colors.
func ValidateTheme(tc ThemeConfig) error {
	keys := make([]string, 0, len(tc.Colors))
	for k := range tc.Colors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := highlight.DefaultColors[k]; !ok {
			return fmt.Errorf("theme.colors: unknown category %q", k)
		}
		if !hexColor.MatchString(tc.Colors[k]) {
			return fmt.Errorf("theme.colors.%s: %q is not a hex color", k, tc.Colors[k])
		}
	}
	return nil
}

// ValidateTracing checks the tracing settings.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	switch tc.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
	}

	if tc.Enabled {
		if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# codepad configuration

# Shared directory with the compile agent. Sources and request.txt are
# written here and the agent answers with <name>.txt.
# code_dir: ~/codes

rules:
  # Directory of <language>.yaml files overriding the built-in rules
  # (text, kotlin, c, cpp, python, java, javascript).
  # dir: ~/.config/codepad/rules

highlight:
  debounce: 100ms   # quiet period after typing before re-highlighting

history:
  depth: 50         # undo snapshots kept

compile:
  initial_delay: 2s # wait before the first check
  interval: 4s      # wait between checks
  max_attempts: 30  # checks before giving up
  watch: true       # also react to filesystem events on the result file
  # history_db: ~/.config/codepad/jobs.db

ui:
  show_status_bar: true
  # markdown_style: dark  # help screen style: "dark" (default) or "light"

# Highlight colors per category
theme:
  colors:
    # keyword: "#C678DD"
    # operator: "#56B6C2"
    # number: "#D19A66"
    # string: "#98C379"
    # comment: "#7F848E"
    # function: "#61AFEF"

# Tracing around highlight passes and compile jobs
# tracing:
#   enabled: true
#   exporter: file      # none, file, stdout, otlp
#   file_path: ~/.config/codepad/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments, creating the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
