// composition-scan analyses what tool declarations from multiple MCP
// servers can do in combination and saves a composition result artifact.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triage-ai/composcan/internal/collector"
	"github.com/triage-ai/composcan/internal/composer"
	"github.com/triage-ai/composcan/internal/oracle"
	"github.com/triage-ai/composcan/internal/registry"
	"github.com/triage-ai/composcan/internal/results"
	"github.com/triage-ai/composcan/internal/scanner"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		servers           []string
		files             []string
		all               bool
		allowSingleOrigin bool
		configPath        string
		resultsDir        string
		verbose           bool
	)

	cmd := &cobra.Command{
		Use:   "composition-scan",
		Short: "Analyse cross-server composition risk of MCP tool declarations",
		Long: `Gathers tool declarations from live MCP servers (--servers, --all) or
from saved per-server result artifacts (--files), and asks the reasoning
oracle what the combined tool set makes possible that no single server
allows on its own.

Examples:
  composition-scan --servers filesystem,fetch
  composition-scan --all
  composition-scan --files results/20250110-093011-filesystem.json --files results/20250110-093042-fetch.json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			reg, err := registry.LoadFileRegistry(configPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			var entries []registry.ServerEntry
			switch {
			case all:
				entries, err = reg.ListServers(ctx)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					return fmt.Errorf("no servers registered in mcp.json")
				}
			case len(servers) > 0:
				for _, name := range servers {
					entry, err := reg.GetServer(ctx, name)
					if err != nil {
						return err
					}
					if entry == nil {
						return fmt.Errorf("unknown server %q (not in mcp.json)", name)
					}
					entries = append(entries, *entry)
				}
			case len(files) == 0:
				return fmt.Errorf("nothing to analyse: use --servers, --files or --all")
			}

			if len(entries)+len(files) < 2 && !allowSingleOrigin {
				return fmt.Errorf("composition analysis needs at least 2 sources; use --allow-single-origin to analyse one server against itself")
			}
			if allowSingleOrigin {
				fmt.Fprintln(os.Stderr, "Warning: single-origin analysis cannot find cross-server compositions")
			}

			svc, err := buildService(logger, resultsDir, allowSingleOrigin)
			if err != nil {
				return err
			}

			fmt.Printf("Running composition analysis over %d servers and %d files...\n",
				len(entries), len(files))
			if err := svc.ScanComposition(ctx, uuid.New().String(), entries, files); err != nil {
				return err
			}
			fmt.Println("done")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&servers, "servers", nil, "registry names of servers to analyse together")
	cmd.Flags().StringArrayVar(&files, "files", nil, "saved per-server artifacts to reconstruct declarations from")
	cmd.Flags().BoolVar(&all, "all", false, "analyse every registered server together")
	cmd.Flags().BoolVar(&allowSingleOrigin, "allow-single-origin", false, "permit analysing tools from a single server")
	cmd.Flags().StringVar(&configPath, "config", "", "path to mcp.json (default: search CWD and parent)")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "results", "directory for result artifacts")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.MarkFlagsMutuallyExclusive("servers", "all")
	cmd.MarkFlagsMutuallyExclusive("files", "all")
	return cmd
}

func buildService(logger *zap.Logger, resultsDir string, allowSingleOrigin bool) (*scanner.Service, error) {
	oracleClient, err := oracle.NewHTTPClient(oracle.HTTPClientConfig{
		BaseURL: envOrDefault("COMPOSCAN_ORACLE_URL", "https://api.openai.com/v1"),
		APIKey:  os.Getenv("COMPOSCAN_ORACLE_API_KEY"),
		Model:   envOrDefault("COMPOSCAN_ORACLE_MODEL", "gpt-4o"),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	lister := collector.NewMCPToolLister(30 * time.Second)
	return scanner.New(scanner.Config{
		Collector: collector.New(lister, logger),
		Builder:   &composer.Builder{AllowSingleOrigin: allowSingleOrigin},
		Oracle:    oracleClient,
		Store:     results.NewStore(resultsDir, logger),
		Model:     envOrDefault("COMPOSCAN_ORACLE_MODEL", "gpt-4o"),
		Logger:    logger,
	}), nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
