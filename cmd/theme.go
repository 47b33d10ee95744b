package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/codepad/internal/config"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Change highlight colors",
}

var themeSetCmd = &cobra.Command{
	Use:   "set <category> <color>",
	Short: "Set the color of a highlight category",
	Long: `Set the color of a highlight category in the config file, keeping its
comments.

Categories: keyword, operator, number, string, comment, function.

Example:
  codepad theme set keyword "#FF79C6"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, color := args[0], args[1]
		if err := config.ValidateTheme(config.ThemeConfig{Colors: map[string]string{category: color}}); err != nil {
			return err
		}
		path := configPath()
		if err := config.SaveThemeColor(path, category, color); err != nil {
			return fmt.Errorf("saving theme: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s in %s\n", category, color, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeSetCmd)
}
