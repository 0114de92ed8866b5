package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/gvakproject/SteamAnaliticWorker/internal/collector"
	"github.com/gvakproject/SteamAnaliticWorker/internal/config"
	"github.com/gvakproject/SteamAnaliticWorker/internal/database"
	"github.com/gvakproject/SteamAnaliticWorker/internal/market"
	"github.com/gvakproject/SteamAnaliticWorker/internal/orders"
	"github.com/gvakproject/SteamAnaliticWorker/pkg/clock"
	"github.com/gvakproject/SteamAnaliticWorker/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the collection worker and its API with
// graceful shutdown support.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	clk := clock.Real{}

	// Initialize services and handlers
	retention := time.Duration(cfg.Database.RetentionDays) * 24 * time.Hour
	ordersService := orders.NewService(db, clk, orders.WithRetention(retention))
	ordersHandlers := orders.NewGinHandlers(ordersService)

	marketClient := market.NewClient(cfg.Market.BaseURL,
		market.WithCurrency(cfg.Market.Currency),
		market.WithRetries(cfg.Market.MaxAttempts, cfg.Market.BackoffUnit),
		market.WithAttemptTimeout(cfg.Market.AttemptTimeout),
	)
	fetcher := market.NewFetcher(marketClient)

	orchestrator := collector.New(ordersService.GetDB(), fetcher, clk,
		collector.WithPace(cfg.Collector.Pace),
		collector.WithRunCeiling(cfg.Collector.RunCeiling),
	)
	collectorHandlers := collector.NewGinHandlers(orchestrator)

	// Start the periodic collection scheduler
	scheduler := collector.NewScheduler(orchestrator, cfg.Collector.Interval)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()

	go scheduler.Start(schedulerCtx)

	// Initialize router
	router := gin.Default()
	router.Use(middleware.RateLimit())
	setupRoutes(router, ordersHandlers, collectorHandlers)

	// Create server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Stop the scheduler, then give outstanding requests 5 seconds
	schedulerCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers. Every
// endpoint is a thin pass-through to the order store or the orchestrator.
func setupRoutes(
	router *gin.Engine,
	ordersHandlers *orders.GinHandlers,
	collectorHandlers *collector.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/summary", ordersHandlers.GetSummaryHandler())

		items := v1.Group("/items")
		{
			items.GET("", ordersHandlers.GetItemsHandler())
			items.POST("", ordersHandlers.AddItemHandler())
			items.GET("/:item_id/orders", ordersHandlers.GetItemOrdersHandler())
			items.GET("/:item_id/analytics", ordersHandlers.GetItemAnalyticsHandler())
			items.GET("/:item_id/timeseries", ordersHandlers.GetItemTimeSeriesHandler())
			items.GET("/:item_id/history", ordersHandlers.GetItemPriceHistoryHandler())
		}

		v1.POST("/collect", collectorHandlers.TriggerCollectionHandler())
	}
}
