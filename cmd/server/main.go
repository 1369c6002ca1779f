package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vinodismyname/gasdash/config"
	"github.com/vinodismyname/gasdash/internal/dashboard"
	"github.com/vinodismyname/gasdash/internal/dataset"
	"github.com/vinodismyname/gasdash/internal/demand"
	"github.com/vinodismyname/gasdash/internal/geo"
	"github.com/vinodismyname/gasdash/internal/regions"
	"github.com/vinodismyname/gasdash/internal/registry"
	"github.com/vinodismyname/gasdash/internal/runtime"
	"github.com/vinodismyname/gasdash/internal/security"
	"github.com/vinodismyname/gasdash/internal/telemetry"
	"github.com/vinodismyname/gasdash/internal/view"
	"github.com/vinodismyname/gasdash/pkg/version"
)

const tokenModel = "gpt-4o"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Environment first so flags can override it.
	dotenvErr := config.LoadDotEnv()
	settings := config.FromEnv()

	var (
		useStdio        bool
		httpAddr        string
		workbook        string
		sheet           string
		offline         bool
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run the MCP server over stdio transport")
	flag.StringVar(&httpAddr, "http", settings.HTTPAddr, "Serve the HTTP dashboard on this address (e.g. :8050)")
	flag.StringVar(&workbook, "workbook", settings.Workbook, "Path to the demand workbook")
	flag.StringVar(&sheet, "sheet", settings.Sheet, "Worksheet holding the monthly table")
	flag.BoolVar(&offline, "offline", settings.Offline, "Do not fetch boundary GeoJSON; maps are reported unavailable")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	level, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	// stdout belongs to the stdio transport.
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "gasdash-server").Logger()
	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dotenvErr != nil {
		logger.Warn().Err(dotenvErr).Msg("config: ignoring unreadable .env")
	}

	if !useStdio && httpAddr == "" {
		fmt.Fprintln(os.Stderr, "no transport selected; use --stdio and/or --http :8050")
		os.Exit(2)
	}

	// Security: reads are confined to the allow-list, or to the workbook's directory.
	guard, err := security.ForWorkbook(settings.AllowedDirs, workbook)
	if err == nil {
		err = guard.ValidateConfig()
	}
	if err != nil {
		logger.Error().Err(err).Msg("security: invalid allow-list configuration")
		fmt.Fprintln(os.Stderr, "invalid allow-list; check GASDASH_ALLOWED_DIRS")
		os.Exit(1)
	}
	logger.Info().Strs("allowed_dirs", guard.Roots()).Msg("security allow-list configured")

	limits := runtime.NewLimits(config.DefaultMaxConcurrentRequests, config.DefaultMaxConcurrentLoads)
	controller := runtime.NewController(limits)

	store := dataset.NewStore(dataset.Options{Sheet: sheet}, guard, controller)
	snap, err := store.Get(ctx, workbook)
	if err != nil {
		logger.Error().Err(err).Str("workbook", workbook).Msg("failed to load demand workbook")
		fmt.Fprintf(os.Stderr, "cannot load workbook %q: %v\n", workbook, err)
		os.Exit(1)
	}

	lookup, err := regions.Default()
	if err != nil {
		logger.Error().Err(err).Msg("invalid built-in region tables")
		os.Exit(1)
	}
	svc := demand.NewService(snap, lookup)

	var source view.BoundarySource
	if !offline {
		fetcher := geo.NewFetcher(nil, settings.StatesURL, settings.RegionsURL, version.UserAgent())
		source = fetcher
		go func() {
			if err := fetcher.Prefetch(ctx); err != nil {
				logger.Warn().Err(err).Msg("boundary prefetch failed; maps will retry on demand")
			}
		}()
	}
	views := view.NewBuilder(svc, source, offline)

	counters := telemetry.NewCounters()
	toolRegistry := registry.New()
	offlineFilter := registry.NewOfflineFilter(toolRegistry, offline)
	runtimeMW := runtime.NewMiddleware(controller, logger)

	srv := server.NewMCPServer(
		"Gas Demand Dashboard",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.ServerHooks(logger, counters)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
			return offlineFilter.FilterTools(ctx, tools)
		}),
	)
	handlers := registry.NewHandlers(views)
	registry.RegisterDemandTools(srv, toolRegistry, handlers)
	registry.RegisterInsightTools(srv, toolRegistry, handlers)

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Str("workbook", snap.Path).
		Int("months", snap.Table.Len()).
		Int("distributors", len(snap.Table.Distributors)).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("model_context_size", toolRegistry.ModelContextSize(tokenModel)).
		Bool("offline", offline).
		Bool("stdio", useStdio).
		Str("http", httpAddr).
		Msg("server bootstrap configured")

	// Token counting may download encoder tables; keep it off the startup path.
	go func() {
		n, err := toolRegistry.TokenFootprint(tokenModel)
		if err != nil {
			logger.Debug().Err(err).Msg("tool token footprint unavailable")
			return
		}
		logger.Info().Int("tool_tokens", n).Msg("tool definitions footprint")
	}()

	g, gctx := errgroup.WithContext(ctx)
	if httpAddr != "" {
		web := dashboard.New(views, dashboard.Options{
			LogoPath:   settings.LogoPath,
			Controller: controller,
			Counters:   counters,
			Logger:     logger,
			Debug:      level <= zerolog.DebugLevel,
		})
		g.Go(func() error { return web.Serve(gctx, httpAddr, shutdownTimeout) })
	}
	if useStdio {
		g.Go(func() error {
			// ServeStdio returns when stdin closes or on SIGTERM/SIGINT.
			defer stop()
			return server.ServeStdio(srv)
		})
	}
	if err := g.Wait(); err != nil {
		// Use stderr for transport errors so clients don't misinterpret output
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
