package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/codepad/internal/config"
	"github.com/zjrosen/codepad/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race the input loop and leak into the editor.
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".codepad/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "codepad [file]",
	Short: "A terminal code editor that compiles through a shared folder",
	Long: `codepad is a terminal code editor with rule-driven syntax highlighting for
Kotlin, C, C++, Python, Java and JavaScript. Compiling hands the saved file to
an external agent through the code directory and shows the agent's answer.`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runEdit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .codepad/config.yaml, then ~/.config/codepad/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also enabled by CODEPAD_DEBUG)")
	rootCmd.PersistentFlags().String("code-dir", "",
		"directory shared with the compile agent")

	_ = viper.BindPFlag("code_dir", rootCmd.PersistentFlags().Lookup("code-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("code_dir", defaults.CodeDir)
	viper.SetDefault("highlight.debounce", defaults.Highlight.Debounce)
	viper.SetDefault("history.depth", defaults.History.Depth)
	viper.SetDefault("compile.initial_delay", defaults.Compile.InitialDelay)
	viper.SetDefault("compile.interval", defaults.Compile.Interval)
	viper.SetDefault("compile.max_attempts", defaults.Compile.MaxAttempts)
	viper.SetDefault("compile.watch", defaults.Compile.Watch)
	viper.SetDefault("compile.history_db", defaults.Compile.HistoryDB)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .codepad/config.yaml (current directory)
		// 2. ~/.config/codepad/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			viper.AddConfigPath(config.ConfigDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// First run: write the commented default next to the user config.
			defaultPath := filepath.Join(config.ConfigDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		} else {
			log.Warn(log.CatConfig, "Failed to read config", "error", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
	cfg.CodeDir = config.ExpandHome(cfg.CodeDir)
	cfg.Rules.Dir = config.ExpandHome(cfg.Rules.Dir)
	cfg.Compile.HistoryDB = config.ExpandHome(cfg.Compile.HistoryDB)
	cfg.Tracing.FilePath = config.ExpandHome(cfg.Tracing.FilePath)
}

// configPath is the file theme and directory changes are saved to.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

// setupLogging enables the debug log when asked for by flag or environment.
// The returned function closes it.
func setupLogging(prefix string) (func(), error) {
	if os.Getenv("CODEPAD_DEBUG") == "" && !debugFlag {
		return func() {}, nil
	}
	logPath := os.Getenv("CODEPAD_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "codepad starting", "debug", true, "logPath", logPath, "version", version)
	return cleanup, nil
}

func debugEnabled() bool {
	return debugFlag || os.Getenv("CODEPAD_DEBUG") != ""
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
