package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tgflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tgflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tgflow version %s\n", strings.TrimSpace(tgflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
