package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/foreman/internal/config"
	"github.com/aretw0/foreman/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// v holds flag, environment and file settings for every command.
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Foreman runs a supervised team of research workers",
	Long: `Foreman routes a task between worker agents under a supervisor model.
The supervisor picks the next worker after every report until it answers FINISH
or the step limit is reached. Worker reports are streamed as they arrive.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./foreman.yaml if present)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.Int("step-limit", 0, "Maximum transitions per run")
	flags.String("provider", "", "Supervisor model provider: openai or anthropic")
	flags.String("model", "", "Model name for the provider")
	flags.String("tools", "", "Tools file with allow-listed commands")

	bind(v, "log.level", "log-level")
	bind(v, "log.format", "log-format")
	bind(v, "run.step_limit", "step-limit")
	bind(v, "llm.provider", "provider")
	bind(v, "llm.model", "model")
	bind(v, "tools.file", "tools")
}

// bind lets a flag override key only when the flag is set explicitly.
func bind(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// loadConfig reads the configuration and creates the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(level, logging.Format(cfg.Log.Format))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
