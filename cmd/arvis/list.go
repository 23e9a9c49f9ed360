package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/arvis/pkg/adapters/manifest"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions and their commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loader.Load()
		if err != nil {
			return err
		}

		catalog := manifest.New(cfg.ExtensionsDir,
			manifest.WithDataDir(cfg.DataDir),
			manifest.WithCacheDir(cfg.CacheDir),
			manifest.WithVariables(cfg.Variables),
		)
		loadErr := catalog.Reload()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BUNDLE ID\tTYPE\tVERSION\tENABLED\tCOMMANDS")
		for _, ext := range catalog.Extensions() {
			keywords := ""
			for _, c := range ext.Commands {
				if c.Command == "" {
					continue
				}
				if keywords != "" {
					keywords += ", "
				}
				keywords += c.Command
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", ext.BundleID, ext.Type, ext.Version, ext.Enabled, keywords)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "some extensions failed to load:\n%v\n", loadErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
