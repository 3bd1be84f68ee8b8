// intent-scan analyses the tool declarations of individual MCP servers
// and saves one result artifact per server.
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
		serverURL  string
		configPath string
		resultsDir string
		all        bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "intent-scan [server-name...]",
		Short: "Analyse MCP server tool declarations for risky intent",
		Long: `Connects to MCP servers, lists their declared tools, and submits the
declarations to the reasoning oracle for a per-server risk assessment.
Servers are named in mcp.json or given directly with --url.

Examples:
  intent-scan filesystem
  intent-scan --all
  intent-scan --url http://localhost:3001`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && serverURL == "" && len(args) == 0 {
				return fmt.Errorf("name at least one server, or use --all or --url")
			}
			if all && (serverURL != "" || len(args) > 0) {
				return fmt.Errorf("--all cannot be combined with server names or --url")
			}

			logger, err := buildLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			reg, err := registry.LoadFileRegistry(configPath)
			if err != nil {
				return err
			}
			entries, err := resolveServers(reg, args, serverURL, all)
			if err != nil {
				return err
			}

			svc, err := buildService(logger, resultsDir)
			if err != nil {
				return err
			}

			ctx := context.Background()
			var failures int
			for _, entry := range entries {
				fmt.Printf("Analysing %s (%s)...\n", entry.Name, entry.URL)
				if err := svc.ScanServer(ctx, uuid.New().String(), entry); err != nil {
					fmt.Fprintf(os.Stderr, "  failed: %v\n", err)
					failures++
					continue
				}
				fmt.Println("  done")
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d scans failed", failures, len(entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "", "scan a server by URL instead of registry name")
	cmd.Flags().StringVar(&configPath, "config", "", "path to mcp.json (default: search CWD and parent)")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "results", "directory for result artifacts")
	cmd.Flags().BoolVar(&all, "all", false, "scan every registered server")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func resolveServers(reg *registry.FileRegistry, names []string, serverURL string, all bool) ([]registry.ServerEntry, error) {
	ctx := context.Background()
	if serverURL != "" {
		return []registry.ServerEntry{{URL: serverURL}}, nil
	}
	if all {
		entries, err := reg.ListServers(ctx)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("no servers registered in mcp.json")
		}
		return entries, nil
	}

	entries := make([]registry.ServerEntry, 0, len(names))
	for _, name := range names {
		entry, err := reg.GetServer(ctx, name)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, fmt.Errorf("unknown server %q (not in mcp.json)", name)
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func buildService(logger *zap.Logger, resultsDir string) (*scanner.Service, error) {
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
