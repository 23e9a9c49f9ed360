package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arvis"
	"github.com/aretw0/arvis/internal/cli"
	mcpAdapter "github.com/aretw0/arvis/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the launcher over MCP on stdio",
	Long: `Starts a launcher session and serves it as an MCP server on stdin and stdout.
Logs go to stderr so they never mix with the protocol stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		watch, _ := cmd.Flags().GetBool("watch")

		cfg, err := loader.Load()
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.Log, debug)
		if err != nil {
			return err
		}
		opts, err := cli.LauncherOptions(cfg, logger, debug)
		if err != nil {
			return err
		}

		l, err := arvis.New(append(opts, arvis.WithWatch(watch))...)
		if err != nil {
			return fmt.Errorf("error initializing arvis: %w", err)
		}
		defer l.Close()

		srv := mcpAdapter.NewServer(l.Session(),
			mcpAdapter.WithExtensions(l),
			mcpAdapter.WithVersion(arvis.Version),
			mcpAdapter.WithLogger(logger),
		)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		logger.Info("Serving arvis over MCP", "extensions", len(l.Extensions()))
		if err := srv.ServeStdio(sigCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server error: %w", err)
		}
		logger.Info("Arvis MCP server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolP("watch", "w", false, "Reload extensions when their manifests change")
}
