package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tgflow/internal/presentation/graph"
	"github.com/aretw0/tgflow/pkg/schema"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flows]",
	Short: "Export the dialog graph visualization",
	Long:  `Loads the schema and outputs a Mermaid diagram (graph TD) of dialogs, buttons and commands.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		c, err := compileSchema(cmd.Context(), cfg, schema.NewRegistry())
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if current, _ := cmd.Flags().GetString("highlight"); current != "" {
			overlay = &graph.GraphOverlay{CurrentDialog: current}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(c, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("highlight", "", "Dialog to highlight as current")
}
