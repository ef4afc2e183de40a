package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"country-atlas-service/internal/config"
	"country-atlas-service/internal/graph"
	"country-atlas-service/internal/handler"
	"country-atlas-service/internal/logging"
	"country-atlas-service/internal/metrics"
	"country-atlas-service/internal/service"
	"country-atlas-service/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "country-atlas-service",
		Short:        "GraphQL and REST API over country records",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(newImportCmd())
	return root
}

// bootstrap loads configuration and opens the store shared by every command.
func bootstrap(ctx context.Context) (*zap.Logger, store.CountryStore, error) {
	if err := config.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logging.New(config.AppConfig.LogPretty, config.AppConfig.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	countryStore, err := store.Open(ctx, config.AppConfig, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", config.AppConfig.StoreDriver, err)
	}
	return log, countryStore, nil
}

func serve(ctx context.Context) error {
	log, countryStore, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := countryStore.Close(closeCtx); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	var m *metrics.Metrics
	if config.AppConfig.MetricsEnabled {
		m = metrics.New()
	}

	// Initialize services
	countryService := service.NewCountryService(countryStore, m, log)
	dataImporter := service.NewDataImporter(countryStore, m, log)

	schema, err := graph.NewSchema(countryService)
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}

	// Initialize handlers
	graphqlHandler := handler.NewGraphQLHandler(schema, config.AppConfig.RequestTimeout, m, log)
	countryHandler := handler.NewCountryHandler(countryService)
	importHandler := handler.NewImportHandler(dataImporter, config.AppConfig.ImportSourceURL)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handler.ErrorHandler,
		BodyLimit:             16 * 1024 * 1024,
		ReadBufferSize:        1024 * 1024 * 4, // 4MB buffer
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if m != nil {
		app.Use(m.Middleware())
		app.Get("/metrics", m.Handler())
	}

	setupRoutes(app, config.AppConfig.RequestTimeout, graphqlHandler, countryHandler, importHandler)

	// Graceful shutdown channel
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + config.AppConfig.ServerPort)
	}()

	log.Info("server started",
		zap.String("port", config.AppConfig.ServerPort),
		zap.String("store", config.AppConfig.StoreDriver),
	)

	select {
	case err := <-listenErr:
		return fmt.Errorf("server error: %w", err)
	case <-shutdownChan:
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func setupRoutes(app *fiber.App, requestTimeout time.Duration, graphqlHandler *handler.GraphQLHandler, countryHandler *handler.CountryHandler, importHandler *handler.ImportHandler) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// GraphQL endpoint
	app.Get("/graphql", graphqlHandler.Welcome)
	app.Post("/graphql", graphqlHandler.Query)

	api := app.Group("/api/v1")

	// Country routes; static paths go before :id
	countryRoutes := api.Group("/countries", handler.RequestTimeout(requestTimeout))
	countryRoutes.Get("/", countryHandler.List)
	countryRoutes.Get("/nearby", countryHandler.Nearby)
	countryRoutes.Get("/nearby.geojson", countryHandler.NearbyGeoJSON)
	countryRoutes.Get("/language/:name", countryHandler.ByLanguage)
	countryRoutes.Get("/:id", countryHandler.Get)
	countryRoutes.Patch("/:id", countryHandler.Edit)
	countryRoutes.Post("/", countryHandler.Create)

	// Import routes
	importRoutes := api.Group("/import")
	importRoutes.Post("/file", importHandler.ImportFile)
	importRoutes.Post("/url", importHandler.ImportURL)
	importRoutes.Get("/status", handler.RequestTimeout(requestTimeout), importHandler.GetStatus)
	importRoutes.Delete("/clear", handler.RequestTimeout(requestTimeout), importHandler.ClearDatabase)
}
