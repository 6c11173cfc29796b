package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/outputctl/internal/config"
	"github.com/bnema/outputctl/internal/display"
	"github.com/bnema/outputctl/internal/logger"
	"github.com/bnema/outputctl/internal/mutation"
	"github.com/bnema/outputctl/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile  string
	showOutputs bool
	showJSON    bool

	rootCmd = &cobra.Command{
		Use:   "outputctl [flags] [output.<ref>.<action>[.<args>]...]",
		Short: "outputctl - change display output configuration",
		Long: `outputctl reads the current output configuration from a display backend,
applies every specifier in order and commits the result in a single request.

An output is referenced by name (eDP-1) or by id (1). Actions:

  output.<ref>.primary
  output.<ref>.enable | output.<ref>.disable
  output.<ref>.mode.<mode id or WIDTHxHEIGHT@RATE>
  output.<ref>.position.<x>,<y>
  output.<ref>.scale.<value>
  output.<ref>.rotation.<none|normal|left|right|inverted>
  output.<ref>.overscan.<0-100>
  output.<ref>.vrrpolicy.<never|always|automatic>
  output.<ref>.rgbrange.<automatic|full|limited>

The first specifier that fails stops the run and nothing is committed.`,
		Example: `  outputctl -o
  outputctl output.HDMI-A-1.enable output.HDMI-A-1.position.1920,0 output.HDMI-A-1.primary
  outputctl output.eDP-1.scale.1,5`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
		RunE:              runOutputctl,
	}
)

// viper key -> persistent flag name
var flagBindings = map[string]string{
	"backend.name":      "backend",
	"backend.file":      "state-file",
	"backend.timeout":   "timeout",
	"apply.dry_run":     "dry-run",
	"apply.confirm":     "confirm",
	"logging.log_level": "log-level",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default is ~/.config/outputctl/outputctl.toml)")
	pf.String("backend", config.DefaultConfig.Backend.Name, "display backend: auto, kscreen, wlr, randr or file")
	pf.String("state-file", "", "YAML snapshot used by the file backend")
	pf.Int("timeout", config.DefaultConfig.Backend.Timeout, "seconds to wait for each backend request")
	pf.Bool("dry-run", false, "apply the specifiers in memory and print the result without committing")
	pf.Bool("confirm", false, "ask before committing the new configuration")
	pf.String("log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.Flags().BoolVarP(&showOutputs, "outputs", "o", false, "show outputs before applying anything")
	rootCmd.Flags().BoolVarP(&showJSON, "json", "j", false, "print the configuration as JSON before applying anything")
}

func initConfig(cmd *cobra.Command, args []string) error {
	config.SetConfigPath(configFile)

	for key, name := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	if err := config.Init(); err != nil {
		return err
	}

	if level := config.Get().Logging.LogLevel; level != "" {
		if err := logger.SetLevel(level); err != nil {
			return err
		}
	}
	return nil
}

func runOutputctl(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !showOutputs && !showJSON {
		return cmd.Help()
	}

	cfg := config.Get()
	timeout := cfg.Backend.RequestTimeout()

	openCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
	backend, err := display.Open(openCtx, display.Options{Name: cfg.Backend.Name, File: cfg.Backend.File})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open display backend: %w", err)
	}
	defer backend.Close()
	logger.Debug("using display backend", "backend", backend.Name())

	out := cmd.OutOrStdout()
	opts := mutation.RunOptions{
		Timeout: timeout,
		DryRun:  cfg.Apply.DryRun,
		Inspect: func(s *display.Snapshot) error {
			return printListings(out, s, showJSON, showOutputs)
		},
	}
	if cfg.Apply.Confirm {
		opts.Confirm = ui.ConfirmApply
	}

	res, err := mutation.Run(cmd.Context(), backend, backend, args, opts)
	if err != nil {
		return err
	}

	switch {
	case res.Committed:
		logger.Info("configuration applied", "backend", backend.Name(), "changes", res.Batch.Applied())
	case cfg.Apply.DryRun && res.Batch.Snapshot().Dirty():
		fmt.Fprint(out, ui.RenderOutputs(res.Batch.Snapshot()))
	}
	return nil
}
