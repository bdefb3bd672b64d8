package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/agent"
	"github.com/quotelab/marketsim/internal/config"
	"github.com/quotelab/marketsim/internal/domain"
	"github.com/quotelab/marketsim/internal/engine"
	"github.com/quotelab/marketsim/internal/handler"
	"github.com/quotelab/marketsim/internal/journal"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Optional .env; absence is fine.
	_ = godotenv.Load()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("starting simulation",
		slog.String("mode", cfg.EngineMode),
		slog.Int("buyers", cfg.NumBuyers),
		slog.Int("sellers", cfg.NumSellers),
		slog.Duration("duration", cfg.SimDuration),
		slog.Int64("seed", seed),
	)

	// Trade journal (persistence collaborator).
	var recorder engine.TradeRecorder = journal.Noop{}
	var pj *journal.Pebble
	if cfg.JournalPath != "" {
		pj, err = journal.Open(cfg.JournalPath)
		if err != nil {
			logger.Error("failed to open trade journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		recorder = pj
	}

	// Engine with listed instruments and registered participants.
	eng := engine.New(recorder, rand.New(rand.NewSource(seed)), logger)

	instruments := []*domain.Instrument{
		domain.NewInstrument("AAPL", "Apple", decimal.NewFromInt(150), 1000),
		domain.NewInstrument("GOOG", "Google", decimal.NewFromInt(2800), 1000),
		domain.NewInstrument("TSLA", "Tesla", decimal.NewFromInt(700), 1000),
	}
	for _, ins := range instruments {
		eng.ListInstrument(ins)
	}

	for i := 0; i < cfg.NumBuyers; i++ {
		cash := decimal.NewFromInt(10000 + int64(i)*5000)
		eng.RegisterBuyer(domain.NewLedger(fmt.Sprintf("B%d", i+1), cash))
	}
	for i := 0; i < cfg.NumSellers; i++ {
		ledger := domain.NewLedger(fmt.Sprintf("S%d", i+1), decimal.Zero)
		// Seed each seller with positions in two instruments.
		ledger.Holdings[instruments[i%len(instruments)].Symbol] = 50
		ledger.Holdings[instruments[(i+1)%len(instruments)].Symbol] = 30
		eng.RegisterSeller(ledger)
	}

	// Front door: direct calls or the dedicated queue worker.
	var submitter agent.Submitter = eng
	var worker *engine.Worker
	workerDone := make(chan struct{})
	if cfg.EngineMode == config.ModeWorker {
		worker = engine.NewWorker(eng)
		go func() {
			worker.Run()
			close(workerDone)
		}()
		submitter = worker
	}

	// Agents, each with its own seeded rng.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < cfg.NumBuyers; i++ {
		b := agent.NewBuyer(
			fmt.Sprintf("B%d", i+1), eng, submitter,
			rand.New(rand.NewSource(seed+int64(i)+1)),
			cfg.MinDecisionWait, cfg.MaxDecisionWait, logger,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(ctx)
		}()
	}
	for i := 0; i < cfg.NumSellers; i++ {
		s := agent.NewSeller(
			fmt.Sprintf("S%d", i+1), eng, submitter,
			rand.New(rand.NewSource(seed+int64(cfg.NumBuyers+i)+1)),
			cfg.MinDecisionWait, cfg.MaxDecisionWait, logger,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Run(ctx)
		}()
	}

	// Observation API.
	router := handler.NewRouter(eng, logger)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	go func() {
		logger.Info("observation api listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Run until the simulation clock expires or a signal arrives.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-time.After(cfg.SimDuration):
		logger.Info("simulation time elapsed")
	}

	// Stop agents first so no new orders are produced, then drain the
	// worker queue, then stop the HTTP server.
	cancel()
	wg.Wait()
	if worker != nil {
		worker.Stop()
		<-workerDone
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	printReport(eng)

	if pj != nil {
		if err := pj.Close(); err != nil {
			logger.Error("journal close error", slog.String("error", err.Error()))
		}
	}
	logger.Info("simulation stopped")
}

// printReport writes the end-of-run summary: trade history, participant
// ledgers, and final instrument quotes.
func printReport(eng *engine.Engine) {
	fmt.Println("\n--- Trade History ---")
	for _, t := range eng.History() {
		fmt.Printf("%s bought %d shares of %s from %s at %s\n",
			t.BuyerID, t.Quantity, t.Symbol, t.SellerID, t.Price.StringFixed(2))
	}

	buyers, sellers := eng.Ledgers()
	sort.Slice(buyers, func(i, j int) bool { return buyers[i].ID < buyers[j].ID })
	sort.Slice(sellers, func(i, j int) bool { return sellers[i].ID < sellers[j].ID })

	fmt.Println("\n--- Buyers ---")
	for _, l := range buyers {
		fmt.Printf("%s: balance=%s holdings=%v\n", l.ID, l.Cash.StringFixed(2), l.Holdings)
	}
	fmt.Println("\n--- Sellers ---")
	for _, l := range sellers {
		fmt.Printf("%s: balance=%s holdings=%v\n", l.ID, l.Cash.StringFixed(2), l.Holdings)
	}

	fmt.Println("\n--- Instruments ---")
	for _, v := range eng.InstrumentViews() {
		fmt.Printf("%s (%s): %s (base %s)\n",
			v.Symbol, v.Name, v.CurrentPrice.StringFixed(2), v.BasePrice.StringFixed(2))
	}
}
