// hppd keeps recipe production costs (HPP) current as ingredient prices and
// operational costs change, and pushes notifications about the impact.
//
// Usage:
//
//	hppd [-verbose] [-quiet] [-addr :8080] [-seed-demo] [-report]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hammamikhairi/hppkit/internal/alert"
	"github.com/hammamikhairi/hppkit/internal/cache"
	"github.com/hammamikhairi/hppkit/internal/config"
	"github.com/hammamikhairi/hppkit/internal/currency"
	"github.com/hammamikhairi/hppkit/internal/display"
	"github.com/hammamikhairi/hppkit/internal/engine"
	"github.com/hammamikhairi/hppkit/internal/httpapi"
	"github.com/hammamikhairi/hppkit/internal/logger"
	"github.com/hammamikhairi/hppkit/internal/notify"
	"github.com/hammamikhairi/hppkit/internal/recipe"
	"github.com/hammamikhairi/hppkit/internal/sqlstore"
)

func main() {
	cfg := config.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "stderr", "file to write logs to")
	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	seedDemo := flag.Bool("seed-demo", false, "load the demo bakery recipes into the database")
	report := flag.Bool("report", false, "print the cost breakdown of every recipe and exit")
	flag.Parse()

	logLevel, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		logLevel = logger.LevelNormal
	}
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		if dir := filepath.Dir(*logFile); dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}
	log := logger.New(logLevel, logOut)
	for _, w := range cfg.Warnings {
		log.Warn("config: %s", w)
	}

	if err := run(cfg, log, *addr, *seedDemo, *report); err != nil {
		log.Error("%v", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger, addr string, seedDemo, report bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN, log.Named("sqlstore"))
	if err != nil {
		return err
	}
	defer store.Close()

	if seedDemo {
		if err := store.Seed(ctx, recipe.DemoIngredients(), recipe.DemoRecipes()); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	width := display.TermWidth()
	format := currency.ForCode(cfg.Currency)
	inbox := notify.NewInbox(log.Named("inbox"), 0)
	ws := notify.NewWSSink(log.Named("ws"))
	defer ws.Close()
	sinks := notify.Fanout{inbox, ws, display.NewTerminalSink(os.Stdout, width)}

	impact := engine.DefaultImpactPolicy()
	impact.High, impact.Medium, impact.Relative = cfg.ImpactHigh, cfg.ImpactMedium, cfg.ImpactRelative

	eng := engine.New(store, sinks, log,
		engine.WithCache(cache.New(log.Named("cache"), cache.WithTTL(cfg.CacheTTL))),
		engine.WithSnapshotStore(store),
		engine.WithImpactPolicy(impact),
		engine.WithConcurrency(cfg.RecalcConcurrency),
		engine.WithMonitorPeriods(cfg.PriceScanEvery, cfg.CacheSweepEvery, cfg.CostCheckEvery),
		engine.WithAlertOptions(
			alert.WithFormatter(format),
			alert.WithBatchSize(cfg.AlertBatchSize),
			alert.WithBatchPause(cfg.AlertBatchPause),
		),
	)
	if err := eng.Init(ctx); err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}
	defer eng.Shutdown(context.Background())

	if report {
		return printReport(ctx, eng, store, format, width)
	}

	fmt.Print(display.RenderBanner(width, fmt.Sprintf("hppd on %s (%s)", addr, cfg.DBDriver)))

	if err := eng.StartMonitoring(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(eng, log.Named("http"), httpapi.WithInbox(inbox), httpapi.WithWebSocket(ws)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printReport(ctx context.Context, eng *engine.Engine, store *sqlstore.Store, format currency.Formatter, width int) error {
	ids, err := store.ListRecipeIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no recipes; run with -seed-demo to load the demo bakery")
		return nil
	}
	for _, id := range ids {
		b, err := eng.ComputeCost(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(display.RenderBreakdown(b, format, width))
	}
	return nil
}
