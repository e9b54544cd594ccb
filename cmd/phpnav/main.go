// # cmd/phpnav/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"phpnav/internal/core/app"
	"phpnav/internal/core/config"
	"phpnav/internal/server"
	"phpnav/internal/shared/observability"
)

var (
	configPath  = flag.String("config", "./phpnav.toml", "Path to config file")
	resolve     = flag.String("resolve", "", "Resolve the symbol at file:line:column and exit")
	references  = flag.String("references", "", "List references for the property at file:line:column and exit")
	completions = flag.String("completions", "", "List accessor completions at file:line:column and exit")
	serve       = flag.Bool("serve", false, "Run the JSON/HTTP daemon")
	jsonOut     = flag.Bool("json", false, "Print results as JSON")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("phpnav v%s\n", VERSION)
		os.Exit(0)
	}

	cfg := loadConfig()

	logLevel := parseLogLevel(cfg.LogLevel)
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if flag.NArg() > 0 {
		cfg.Workspace.Roots = []string{flag.Arg(0)}
	}

	modes := 0
	for _, set := range []bool{*resolve != "", *references != "", *completions != "", *serve} {
		if set {
			modes++
		}
	}
	if modes == 0 {
		fmt.Fprintln(os.Stderr, "one of --resolve, --references, --completions, or --serve is required")
		flag.Usage()
		os.Exit(2)
	}
	if modes > 1 {
		fmt.Fprintln(os.Stderr, "--resolve, --references, --completions, and --serve are mutually exclusive")
		os.Exit(2)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	ctx := context.Background()

	switch {
	case *resolve != "":
		os.Exit(runResolve(ctx, a, *resolve, *jsonOut))
	case *references != "":
		os.Exit(runReferences(ctx, a, *references, *jsonOut))
	case *completions != "":
		os.Exit(runCompletions(ctx, a, *completions, *jsonOut))
	}

	if err := runDaemon(ctx, a, cfg); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err == nil {
		return cfg
	}
	if *configPath == "./phpnav.toml" && os.IsNotExist(err) {
		// No config file is fine for one-shot use; defaults cover it.
		return config.Default(".")
	}
	slog.Error("failed to load config", "path", *configPath, "error", err)
	os.Exit(1)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon(ctx context.Context, a *app.App, cfg *config.Config) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	if cfg.Watch.Enabled {
		if err := a.StartWatch(); err != nil {
			return err
		}
	}

	srv := server.New(cfg.Server.Address, a)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("shutting down")
	return srv.Stop(context.Background())
}
