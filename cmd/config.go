package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bnema/outputctl/internal/config"
	"github.com/bnema/outputctl/internal/logger"
	"github.com/bnema/outputctl/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage outputctl configuration",
	Long:  `Manage outputctl configuration: backend selection, request timeout and commit behaviour.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		file := cfg.Backend.File
		if file == "" {
			file = "-"
		}
		level := cfg.Logging.LogLevel
		if level == "" {
			level = "(LOG_LEVEL)"
		}

		lines := []string{
			ui.FormatField("Config file", config.GetConfigPath()),
			"",
			ui.SectionStyle.Render("[backend]"),
			"  " + ui.FormatField("Name", cfg.Backend.Name),
			"  " + ui.FormatField("File", file),
			"  " + ui.FormatField("Timeout", cfg.Backend.RequestTimeout().String()),
			"",
			ui.SectionStyle.Render("[apply]"),
			"  " + ui.FormatField("Confirm", strconv.FormatBool(cfg.Apply.Confirm)),
			"  " + ui.FormatField("Dry run", strconv.FormatBool(cfg.Apply.DryRun)),
			"",
			ui.SectionStyle.Render("[logging]"),
			"  " + ui.FormatField("Level", level),
		}
		for _, l := range lines {
			if _, err := fmt.Fprintln(out, l); err != nil {
				return err
			}
		}
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Infof("Configuration file already exists at: %s", configPath)
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		if err := config.Save(); err != nil {
			return err
		}

		logger.Infof("Configuration initialized at: %s", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "Force overwrite existing configuration")

	rootCmd.AddCommand(configCmd)
}
