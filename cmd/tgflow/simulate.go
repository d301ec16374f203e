package main

import (
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/tgflow"
	"github.com/aretw0/tgflow/internal/logging"
	"github.com/aretw0/tgflow/internal/presentation/tui"
	"github.com/aretw0/tgflow/pkg/adapters/console"
	"github.com/aretw0/tgflow/pkg/schema"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [flows]",
	Short: "Chat with the bot in the terminal",
	Long: `Runs the schema against a console platform. Bot messages are printed with their
buttons numbered; type a number to press a button, a /command, or any text.
Use @file <path>, @photo <id>, @contact <phone> [name] and @location <lat> <lon>
to send other kinds of input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		plain, _ := cmd.Flags().GetBool("plain")
		headless, _ := cmd.Flags().GetBool("headless")

		interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		if !interactive {
			headless = true
		}

		logger := logging.NewNop()
		if cmd.Flags().Changed("log-level") {
			if logger, err = newLogger(cfg); err != nil {
				return err
			}
		}

		s, err := loadSchema(cmd.Context(), cfg, schema.NewRegistry())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		profile := termenv.Ascii
		var consoleOpts []console.Option
		if !plain && interactive {
			profile = termenv.ColorProfile()
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil || width <= 0 {
				width = 80
			}
			consoleOpts = append(consoleOpts, console.WithRenderer(tui.NewRenderer(width-4)))
		}
		consoleOpts = append(consoleOpts, console.WithColors(profile))
		platform := console.New(out, consoleOpts...)

		bot, err := tgflow.New(s, platform,
			tgflow.WithName(cfg.Bot.Name),
			tgflow.WithLogger(logger),
			tgflow.WithConfig(cfg.Bot.Config),
		)
		if err != nil {
			return err
		}
		defer bot.Stop()

		if !headless {
			tui.PrintBanner(out, profile)
		}

		r := tgflow.NewRunner()
		r.Input = cmd.InOrStdin()
		r.Output = out
		r.Headless = headless
		return r.Run(cmd.Context(), bot, platform)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Bool("plain", false, "Disable colors and markdown rendering")
	simulateCmd.Flags().Bool("headless", false, "No banner or prompts (implied when stdin is not a terminal)")
}
