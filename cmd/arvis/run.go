package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/arvis/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the launcher in the terminal",
	Long:  `Starts an interactive launcher session. Each line typed replaces the input; lines starting with ':' are commands (see :help).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		watch, _ := cmd.Flags().GetBool("watch")
		return cli.Execute(loader, debug, watch)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("watch", "w", false, "Reload extensions when their manifests change")

	// 'run' is the default when no command is given.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
