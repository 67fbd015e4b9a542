package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/noot-app/fct-api/internal/config"
	"github.com/noot-app/fct-api/internal/mcpgo"
	"github.com/noot-app/fct-api/internal/query"
	"github.com/noot-app/fct-api/internal/server"
	"github.com/noot-app/fct-api/internal/version"
	"github.com/spf13/cobra"
)

const rootLong = `fct-api serves the Philippine Food Composition Tables (PhilFCT) as a
read-only REST API and as MCP tools.

The data directory written by the PhilFCT extractor (taxonomy.json,
foods/index.json and one foods/<id>.json per food) is loaded and indexed in
memory at startup. The server refuses to start if any file is malformed.

The server operates in two modes:

1. HTTP Mode (default): REST API and MCP endpoint
   - GET /v1/foods, /v1/foods/{id}, /v1/nutrients, /v1/categories
   - POST /mcp (MCP streamable HTTP)
   - GET /health, /ready, /metrics (never authenticated)
   - Bearer token authentication when AUTH_TOKEN is set

2. STDIO Mode (--stdio): MCP over stdio pipes for local desktop clients
   - No authentication

Available MCP Tools:
- search_foods: Search foods by name, category, nutrient and food group
- get_food: Full nutrient profile of one food
- list_nutrients: Nutrient codes, names and units
- list_categories: Nutrient categories and their sections

The dataset is reloaded on SIGHUP, every RELOAD_INTERVAL_MINUTES, or on
file changes when WATCH_DATA=true. A failed reload keeps serving the
previous snapshot.`

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of tests.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fct-api",
		Short:         "PhilFCT food composition REST API and MCP server",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdio, _ := cmd.Flags().GetBool("stdio")

			if stdio {
				return runStdioMode(cmd, args)
			}
			return runHTTPMode(cmd, args)
		},
	}

	rootCmd.Flags().Bool("stdio", false, "Run the MCP server over stdio for local desktop clients (default: HTTP mode)")

	rootCmd.AddCommand(newValidateCmd(), newExportCmd(), newVersionCmd())

	return rootCmd
}

// buildEngine returns the engine every mode serves from. With
// QUERY_ENGINE_MOCK=true a fixed in-memory engine is used and no data
// directory is read.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (query.QueryEngine, *server.ServerInitializer, error) {
	if query.UseMock() {
		logger.Warn("Using mock query engine", "env", "QUERY_ENGINE_MOCK")
		return query.NewMockEngine(logger), nil, nil
	}

	limits := query.Limits{Default: cfg.DefaultLimit, Max: cfg.MaxLimit}
	engine := query.NewEngine(limits, logger)

	initializer := server.NewServerInitializer(cfg, engine, logger)
	if err := initializer.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize dataset", "error", err)
		return nil, nil, err
	}

	return engine, initializer, nil
}

// runStdioMode runs the MCP server in stdio mode
func runStdioMode(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol, so logs go to stderr
	logger := config.NewLogger(true)

	cfg := config.Load()

	logger.Info("🔌 Starting PhilFCT MCP server in STDIO mode",
		"mode", "stdio",
		"auth", "not required for stdio mode",
		"transport", "stdio pipes",
		"data_dir", cfg.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, initializer, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if initializer != nil {
		go initializer.RunReloadLoop(ctx)
	}

	mcpSrv := mcpgo.NewServer(engine, version.Tag(), logger)
	return mcpSrv.ServeStdio()
}

// runHTTPMode serves the REST API and the MCP endpoint over HTTP
func runHTTPMode(cmd *cobra.Command, args []string) error {
	logger := config.NewLogger(false)

	cfg := config.Load()

	logger.Info("🌐 Starting PhilFCT API in HTTP mode",
		"mode", "http",
		"auth", cfg.AuthEnabled(),
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"version", version.Tag())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, initializer, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	mcpSrv := mcpgo.NewServer(engine, version.Tag(), logger)
	srv := server.New(cfg, engine, initializer, mcpSrv, logger)

	return srv.Start(ctx)
}

// Execute runs the command tree with the process arguments
func Execute() error {
	return newRootCmd().Execute()
}

// Run is the main entry point for the CLI application
func Run() error {
	return Execute()
}
