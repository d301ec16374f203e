package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/tgflow/internal/config"
	"github.com/aretw0/tgflow/pkg/adapters/loam"
	"github.com/aretw0/tgflow/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flows]",
	Short: "Check the schema for consistency",
	Long: `Loads the schema and reports every structural problem: unknown keys,
unknown actions, missing dialogs, duplicate ids and Telegram limits.
Actions other than the built-ins (start, goto:<id>, emit:<event>) are
registered by the host program, so unknown names are reported here.

With --watch, a markdown directory is validated again on every change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchValidate(ctx, cfg, cmd.OutOrStdout())
		}
		if err := validateOnce(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("watch", "w", false, "Revalidate a markdown directory whenever a document changes")
}

func validateOnce(ctx context.Context, cfg *config.Config, out io.Writer) error {
	c, err := compileSchema(ctx, cfg, schema.NewRegistry())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Schema is valid! ✅ (%d dialogs, %d commands)\n", len(c.Dialogs()), len(c.Commands()))
	return nil
}

// watchValidate keeps validating until ctx is done. Invalid states are
// reported and do not stop the watch.
func watchValidate(ctx context.Context, cfg *config.Config, out io.Writer) error {
	loader, err := loam.Open(cfg.Flows.Path, loam.WithInclude(cfg.Flows.Include))
	if err != nil {
		return err
	}
	changes, err := loader.Watch(ctx)
	if err != nil {
		return err
	}

	report := func() {
		if err := validateOnce(ctx, cfg, out); err != nil {
			fmt.Fprintf(out, "Validation failed: %v\n", err)
		}
	}
	report()

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "Change detected: %s\n", path)
			report()
		}
	}
}
