package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/codepad/internal/tracing"
)

func loadConfigFromYAML(t *testing.T, yaml string) Config {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0644))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.NoError(t, cfg.Validate())
	require.Equal(t, 100*time.Millisecond, cfg.Highlight.Debounce)
	require.Equal(t, 50, cfg.History.Depth)
	require.Equal(t, 2*time.Second, cfg.Compile.InitialDelay)
	require.Equal(t, 4*time.Second, cfg.Compile.Interval)
	require.Equal(t, 30, cfg.Compile.MaxAttempts)
	require.False(t, cfg.Tracing.Enabled)
}

func TestDefaultConfigTemplate_Parses(t *testing.T) {
	cfg := loadConfigFromYAML(t, DefaultConfigTemplate())

	require.NoError(t, cfg.Validate())
	require.Equal(t, Defaults().Compile.Interval, cfg.Compile.Interval)
	require.Equal(t, 30, cfg.Compile.MaxAttempts)
	require.True(t, cfg.Compile.Watch)
}

func TestLoad_Overrides(t *testing.T) {
	cfg := loadConfigFromYAML(t, `
code_dir: /sdcard/codes
rules:
  dir: /etc/codepad/rules
highlight:
  debounce: 250ms
compile:
  interval: 1s
  max_attempts: 5
theme:
  colors:
    keyword: "#FF0000"
tracing:
  enabled: true
  exporter: stdout
`)

	require.NoError(t, cfg.Validate())
	require.Equal(t, "/sdcard/codes", cfg.CodeDir)
	require.Equal(t, "/etc/codepad/rules", cfg.Rules.Dir)
	require.Equal(t, 250*time.Millisecond, cfg.Highlight.Debounce)
	require.Equal(t, time.Second, cfg.Compile.Interval)
	require.Equal(t, 5, cfg.Compile.MaxAttempts)
	require.Equal(t, 2*time.Second, cfg.Compile.InitialDelay, "unset keys keep defaults")
	require.Equal(t, "#FF0000", cfg.Theme.Colors["keyword"])
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, tracing.ExporterStdout, cfg.Tracing.Exporter)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty code dir", func(c *Config) { c.CodeDir = " " }, "code_dir"},
		{"negative debounce", func(c *Config) { c.Highlight.Debounce = -time.Second }, "highlight.debounce"},
		{"zero depth", func(c *Config) { c.History.Depth = 0 }, "history.depth"},
		{"negative delay", func(c *Config) { c.Compile.InitialDelay = -1 }, "compile.initial_delay"},
		{"zero interval", func(c *Config) { c.Compile.Interval = 0 }, "compile.interval"},
		{"zero attempts", func(c *Config) { c.Compile.MaxAttempts = 0 }, "compile.max_attempts"},
		{"unknown category", func(c *Config) { c.Theme.Colors = map[string]string{"macro": "#FFF"} }, "unknown category"},
		{"bad color", func(c *Config) { c.Theme.Colors = map[string]string{"keyword": "red"} }, "not a hex color"},
		{"markdown style", func(c *Config) { c.UI.MarkdownStyle = "sepia" }, "ui.markdown_style"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "sample_rate"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"file path", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = tracing.ExporterFile
			c.Tracing.FilePath = ""
		}, "file_path"},
		{"otlp endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = tracing.ExporterOTLP
			c.Tracing.OTLPEndpoint = ""
		}, "otlp_endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.CodeDir = "/codes"
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".codepad", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "codes"), ExpandHome("~/codes"))
	require.Equal(t, home, ExpandHome("~"))
	require.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	require.Equal(t, "~user/x", ExpandHome("~user/x"))
}
