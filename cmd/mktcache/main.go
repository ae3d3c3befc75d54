// Market data cache CLI
// This application inspects and exercises the resolution, calendar and cache
// layers: resolve a ticker through the strategy chain, print a session
// window for a date, and inspect or clear recorded fetch attempts.
//
// Usage:
//
//	mktcache resolve --ticker "AAPL US Equity"
//	mktcache window --ticker "AAPL US Equity" --date 2025-11-20 --session day_open_30
//	mktcache trials --ticker "AAPL US Equity" --date 2025-11-20 [--reset]
//
// For detailed help on any command, use: mktcache <command> --help
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/mktdata/go-mktcache/internal/calendar"
	"github.com/mktdata/go-mktcache/internal/config"
	"github.com/mktdata/go-mktcache/internal/logger"
	"github.com/mktdata/go-mktcache/internal/models"
	"github.com/mktdata/go-mktcache/internal/resolver"
	"github.com/mktdata/go-mktcache/internal/session"
	"github.com/mktdata/go-mktcache/internal/trials"
)

// CLI version information
const (
	Version    = "1.0.0"
	AppName    = "mktcache"
	ConfigFile = "mktcache.json"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0
	ExitUsageError  = 1
	ExitConfigError = 2
	ExitDataError   = 4
)

// CLI represents the main CLI application
type CLI struct {
	config   *config.AppConfig
	logs     *logger.Manager
	logger   *slog.Logger
	root     string
	table    *calendar.Table
	chain    *resolver.Chain
	sessions *session.Resolver
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(ExitUsageError)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := &CLI{}
	if err := cli.initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize CLI: %v\n", err)
		os.Exit(ExitConfigError)
	}
	defer cli.logs.Close()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "resolve":
		if err := cli.handleResolve(ctx, args); err != nil {
			cli.logger.Error("Resolution failed", "error", err)
			os.Exit(ExitDataError)
		}
	case "window":
		if err := cli.handleWindow(ctx, args); err != nil {
			cli.logger.Error("Window resolution failed", "error", err)
			os.Exit(ExitDataError)
		}
	case "trials":
		if err := cli.handleTrials(ctx, args); err != nil {
			cli.logger.Error("Trial inspection failed", "error", err)
			os.Exit(ExitDataError)
		}
	case "--version", "-v":
		fmt.Printf("%s version %s\n", AppName, Version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(ExitUsageError)
	}
}

// initialize sets up the CLI application components
func (cli *CLI) initialize() error {
	mgr := config.NewManager(ConfigFile, slog.Default())
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cli.config = cfg

	logs, err := logger.NewManager(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	cli.logs = logs
	cli.logger = logs.Component("cli")

	cli.root = config.NewRootResolver(cfg.RootPath, logs.Component("config")).Resolve()

	table, err := calendar.LoadTable(cli.root, logs.Component("calendar"))
	if err != nil {
		return fmt.Errorf("failed to load exchange table: %w", err)
	}
	cli.table = table
	cli.sessions = session.NewResolver(logs.Component("session"))

	// The CLI runs offline: no calendar provider and no roll provider, so
	// the chain answers from the static table and identifier rules only.
	cli.chain = resolver.NewChain(table, nil, nil, nil, logs.Component("resolver"))

	return nil
}

// handleResolve runs one ticker through the strategy chain and prints the
// winning strategy's answer.
func (cli *CLI) handleResolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	ticker := fs.String("ticker", "", "ticker to resolve (required)")
	date := fs.String("date", time.Now().Format("2006-01-02"), "query date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ticker == "" {
		return fmt.Errorf("--ticker is required")
	}
	req, err := buildRequest(*ticker, *date, "day")
	if err != nil {
		return err
	}

	resolved, err := cli.chain.Resolve(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("Query ticker: %s\n", resolved.QueryTicker)
	fmt.Printf("Exchange:     %s\n", resolved.Exchange.Key)
	fmt.Printf("Timezone:     %s\n", resolved.Exchange.Timezone)
	fmt.Printf("Kind:         %s\n", resolved.Kind)
	return nil
}

// handleWindow prints the UTC session window for a ticker, date and session
// expression.
func (cli *CLI) handleWindow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("window", flag.ContinueOnError)
	ticker := fs.String("ticker", "", "ticker to resolve (required)")
	date := fs.String("date", time.Now().Format("2006-01-02"), "query date (YYYY-MM-DD)")
	sess := fs.String("session", "day", "session expression (e.g. day, day_open_30)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ticker == "" {
		return fmt.Errorf("--ticker is required")
	}
	req, err := buildRequest(*ticker, *date, *sess)
	if err != nil {
		return err
	}

	resolved, err := cli.chain.Resolve(ctx, req)
	if err != nil {
		return err
	}
	window, err := cli.sessions.Resolve(resolved.Exchange, req.Date, req.Session)
	if err != nil {
		return err
	}
	if !window.IsValid() {
		fmt.Printf("No %q session for %s on %s\n", req.Session, req.Ticker, req.DateString())
		return nil
	}

	fmt.Printf("Session:  %s\n", window.SessionName)
	fmt.Printf("Start:    %s\n", window.StartTime.Format(time.RFC3339))
	fmt.Printf("End:      %s\n", window.EndTime.Format(time.RFC3339))
	return nil
}

// handleTrials inspects or clears the recorded failed-attempt count for one
// query key.
func (cli *CLI) handleTrials(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trials", flag.ContinueOnError)
	ticker := fs.String("ticker", "", "ticker to inspect (required)")
	date := fs.String("date", time.Now().Format("2006-01-02"), "query date (YYYY-MM-DD)")
	eventType := fs.String("event-type", models.DefaultEventType, "event type of the tracked query")
	reset := fs.Bool("reset", false, "clear the recorded attempts for this key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ticker == "" {
		return fmt.Errorf("--ticker is required")
	}
	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		return fmt.Errorf("invalid --date %q: %w", *date, err)
	}

	ledger, err := trials.Open(ctx, cli.config.LedgerPath(cli.root), cli.logs.Component("trials"))
	if err != nil {
		return err
	}
	defer ledger.Close()

	key := trials.Key{Func: "bars", Ticker: *ticker, Date: day, EventType: *eventType}
	if *reset {
		if err := ledger.Reset(ctx, key); err != nil {
			return err
		}
		fmt.Printf("Cleared recorded attempts for %s on %s\n", *ticker, *date)
		return nil
	}

	count := ledger.Count(ctx, key)
	fmt.Printf("Ticker:    %s\n", *ticker)
	fmt.Printf("Date:      %s\n", *date)
	fmt.Printf("Attempts:  %d (threshold %d)\n", count, cli.config.Trials.Threshold)
	return nil
}

func buildRequest(ticker, date, sess string) (models.DataRequest, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return models.DataRequest{}, fmt.Errorf("invalid --date %q: %w", date, err)
	}
	req, err := models.NewDataRequest(ticker, day)
	if err != nil {
		return models.DataRequest{}, err
	}
	req.Session = sess
	return req, nil
}

// printUsage displays the main usage information
func printUsage() {
	fmt.Printf(`%s - market data session, resolution and cache inspector

USAGE:
    %s <command> [options]

COMMANDS:
    resolve    Resolve a ticker through the strategy chain
    window     Print the UTC session window for a ticker and date
    trials     Inspect or clear recorded failed fetch attempts

OPTIONS:
    --version, -v    Show version information
    --help, -h       Show this help message

EXAMPLES:
    %s resolve --ticker "AAPL US Equity"
    %s window --ticker "ES1 Index" --date 2025-11-20 --session day_open_30
    %s trials --ticker "AAPL US Equity" --date 2025-11-20 --reset

Configuration is read from %s and MKTCACHE_* environment variables.
`, AppName, AppName, AppName, AppName, AppName, ConfigFile)
}
