package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arvis/internal/config"
)

var loader *config.Loader

var rootCmd = &cobra.Command{
	Use:   "arvis",
	Short: "Arvis is a keyboard launcher driven by workflow extensions",
	Long: `Arvis runs workflow and plugin extensions: type a keyword, pick a row,
and the extension's actions open URLs, copy text or run scripts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}
		loader = config.NewLoader(home)

		file, _ := cmd.Flags().GetString("config")
		loader.SetFile(file)
		return loader.BindFlags(cmd.Flags(), boundFlags(cmd))
	},
}

// boundFlags maps config keys to the flags cmd actually defines.
func boundFlags(cmd *cobra.Command) map[string]string {
	keys := map[string]string{}
	for key, name := range map[string]string{
		"extensions_dir":  "extensions",
		"log.level":       "log-level",
		"http.addr":       "addr",
		"history.backend": "history",
	} {
		if cmd.Flags().Lookup(name) != nil {
			keys[key] = name
		}
	}
	return keys
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/arvis/config.yaml)")
	rootCmd.PersistentFlags().StringP("extensions", "e", "", "Directory holding the installed extensions")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("history", "memory", "History backend (memory, redis)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log engine lifecycle events")
}
