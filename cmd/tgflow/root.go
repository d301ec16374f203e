package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tgflow/internal/config"
	"github.com/aretw0/tgflow/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tgflow",
	Short: "tgflow runs declarative Telegram dialog bots",
	Long: `tgflow turns a schema of dialogs (a YAML file or a directory of markdown
documents) into a Telegram bot, and lets you simulate it in the terminal.`,
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
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the tgflow YAML configuration file")
	rootCmd.PersistentFlags().String("flows", "", "Schema file or markdown directory (overrides flows.path)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flows, _ := cmd.Flags().GetString("flows"); flows != "" {
		cfg.Flows.Path = flows
	} else if len(args) > 0 {
		cfg.Flows.Path = args[0]
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(os.Stderr, level, cfg.Log.Format), nil
}
