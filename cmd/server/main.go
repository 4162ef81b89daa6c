package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finsight-backend/internal/adapter/httpapi"
	"github.com/finsight/finsight-backend/internal/adapter/repository/postgres"
	"github.com/finsight/finsight-backend/internal/config"
	"github.com/finsight/finsight-backend/internal/usecase/budget"
	"github.com/finsight/finsight-backend/internal/usecase/cashflow"
	"github.com/finsight/finsight-backend/internal/usecase/ledger"
	"github.com/finsight/finsight-backend/internal/usecase/projection"
	"github.com/finsight/finsight-backend/internal/usecase/seeder"
	"github.com/finsight/finsight-backend/internal/usecase/valuation"
)

func main() {
	// 1. Logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// 2. Database
	db, err := postgres.NewDB(cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 3. Repositories
	transactionRepo := postgres.NewTransactionRepository(db)
	grantRepo := postgres.NewGrantRepository(db)
	lotRepo := postgres.NewLotRepository(db)
	realizationRepo := postgres.NewRealizationRepository(db)
	ruleRepo := postgres.NewRecurringRuleRepository(db)
	priceRepo := postgres.NewPriceRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)

	// 4. Services (Use Cases)
	ledgerService := ledger.NewService(grantRepo, lotRepo, realizationRepo)
	valuationService := valuation.NewService(lotRepo, realizationRepo, priceRepo)
	cashflowService := cashflow.NewService(transactionRepo, ruleRepo, categoryRepo)
	budgetService := budget.NewService(transactionRepo)
	materializer := projection.NewMaterializer(ruleRepo, transactionRepo, logger)

	// Seed the default category -> group mapping
	ctx := context.Background()
	categorySeeder := seeder.NewCategorySeeder(categoryRepo)
	if err := categorySeeder.Seed(ctx); err != nil {
		logger.Fatalf("Failed to seed category groups: %v", err)
	}
	logger.Info("Category groups seeded successfully")

	// 5. Daily maintenance: apply due vesting, materialize due recurring occurrences
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.MaintenanceCron, func() {
		now := time.Now().UTC()
		if err := ledgerService.ApplyVesting(ctx, now); err != nil {
			logger.WithError(err).Error("vesting application failed")
		}
		if err := materializer.Run(ctx, now); err != nil {
			logger.WithError(err).Error("recurring materialization failed")
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule maintenance job: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 6. HTTP server
	api := httpapi.NewServer(ledgerService, valuationService, cashflowService, budgetService, logger)

	handler := httpapi.LoggingMiddleware(logger)(
		httpapi.AuthMiddleware(cfg.APIToken)(api.Router()),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	waitForShutdown(server, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server, logger *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Infof("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("HTTP server stopped")
}
