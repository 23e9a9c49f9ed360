package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arvis"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of arvis",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "arvis version %s\n", strings.TrimSpace(arvis.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
