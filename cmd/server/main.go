package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-tracker/internal/ai"
	"github.com/dvloznov/wealth-tracker/internal/api"
	"github.com/dvloznov/wealth-tracker/internal/api/handlers"
	"github.com/dvloznov/wealth-tracker/internal/budget"
	"github.com/dvloznov/wealth-tracker/internal/config"
	"github.com/dvloznov/wealth-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/wealth-tracker/internal/ledger"
	"github.com/dvloznov/wealth-tracker/internal/logger"
	"github.com/dvloznov/wealth-tracker/internal/mailer"
	"github.com/dvloznov/wealth-tracker/internal/receiptvault"
	"github.com/dvloznov/wealth-tracker/internal/report"
	"github.com/dvloznov/wealth-tracker/internal/scheduler"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

const (
	recurringTriggerSpec = "0 0 * * *"
	budgetCheckSpec      = "0 */6 * * *"
	monthlyReportSpec    = "0 0 1 * *"
)

func main() {
	var configDir = flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	st, err := store.New(cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	// Job infrastructure for recurring transaction materialization.
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueueWithWorkers(100, cfg.Jobs.Workers, jobStore)

	materializer := ledger.NewMaterializer(st, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Msg("Starting job worker")
		if err := queue.Start(workerCtx, materializer.HandleJob); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	trigger := ledger.NewTrigger(st, queue, log)

	mail := mailer.New(cfg.Resend.APIKey, cfg.Resend.From, log)
	evaluator := budget.NewEvaluator(st, mail, log)

	// The AI collaborator is optional; reports fall back to static insights
	// and receipt scanning is disabled when it is unavailable.
	var aiClient *ai.Client
	if cfg.Gemini.Enabled {
		aiClient, err = ai.NewClient(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini unavailable, AI features disabled")
			aiClient = nil
		}
	}

	var insights report.InsightGenerator = report.StaticInsights{}
	var scanner handlers.ReceiptScanner
	if aiClient != nil {
		insights = aiClient
		scanner = aiClient
	}

	generator := report.NewGenerator(st, insights, mail, log)

	var archiver handlers.ReceiptArchiver
	if cfg.GCS.Bucket != "" {
		vault, err := receiptvault.New(ctx, cfg.GCS.Bucket)
		if err != nil {
			log.Warn().Err(err).Msg("Receipt archive unavailable")
		} else {
			defer vault.Close()
			archiver = vault
		}
	} else {
		log.Warn().Msg("No GCS bucket configured, receipt images will not be retained")
	}

	// Background schedule.
	sched := scheduler.New(log)
	mustRegister(log, sched, "recurring-transactions", recurringTriggerSpec, func(ctx context.Context) error {
		dispatched, err := trigger.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("dispatched", dispatched).Msg("Recurring templates dispatched")
		return nil
	})
	mustRegister(log, sched, "budget-check", budgetCheckSpec, func(ctx context.Context) error {
		alerts, err := evaluator.CheckBudgets(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("alerts", alerts).Msg("Budget check completed")
		return nil
	})
	mustRegister(log, sched, "monthly-report", monthlyReportSpec, func(ctx context.Context) error {
		sent, err := generator.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("sent", sent).Msg("Monthly reports sent")
		return nil
	})
	sched.Start()

	router := api.NewRouter(api.Deps{
		Store:     st,
		JobStore:  jobStore,
		Scanner:   scanner,
		Archiver:  archiver,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()
	cancelWorker()

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := queue.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Job queue shutdown failed")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 15*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

func mustRegister(log zerolog.Logger, sched *scheduler.Scheduler, name, spec string, fn scheduler.JobFunc) {
	if err := sched.Register(name, spec, fn); err != nil {
		log.Fatal().Err(err).Str("job", name).Msg("Failed to register scheduled job")
	}
}
