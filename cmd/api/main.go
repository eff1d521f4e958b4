package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aldousari/vendpoint-backend/api/routes"
	"github.com/aldousari/vendpoint-backend/internal/assignments"
	"github.com/aldousari/vendpoint-backend/internal/dispense"
	"github.com/aldousari/vendpoint-backend/internal/machineproducts"
	"github.com/aldousari/vendpoint-backend/internal/machines"
	"github.com/aldousari/vendpoint-backend/internal/planogram"
	"github.com/aldousari/vendpoint-backend/internal/products"
	"github.com/aldousari/vendpoint-backend/internal/sales"
	"github.com/aldousari/vendpoint-backend/internal/vendors"
	"github.com/aldousari/vendpoint-backend/internal/warehouses"
	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/db"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
	"github.com/aldousari/vendpoint-backend/pkg/metrics"
	"github.com/aldousari/vendpoint-backend/pkg/migrate"
	"github.com/aldousari/vendpoint-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dispenseMetrics := metrics.NewDispenseMetrics(registry)

	conn := dbClient.DB()
	machineRepo := machines.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	slotRepo := planogram.NewRepository(conn)
	overrideRepo := machineproducts.NewRepository(conn)
	saleRepo := sales.NewRepository(conn)
	vendorRepo := vendors.NewRepository(conn)
	warehouseRepo := warehouses.NewRepository(conn)

	machineService, err := machines.NewService(machineRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create machine service", err)
		os.Exit(1)
	}
	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	planogramService, err := planogram.NewService(slotRepo, machineRepo, productRepo, dbClient, cfg.Planogram)
	if err != nil {
		logg.Error(context.Background(), "failed to create planogram service", err)
		os.Exit(1)
	}
	assignmentService, err := assignments.NewService(slotRepo, machineRepo, productRepo, logg, cfg.Planogram)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignment service", err)
		os.Exit(1)
	}
	overrideService, err := machineproducts.NewService(overrideRepo, machineRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}
	salesService, err := sales.NewService(saleRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}
	vendorService, err := vendors.NewService(vendorRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}
	warehouseService, err := warehouses.NewService(warehouseRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse service", err)
		os.Exit(1)
	}
	dispenseService := dispense.NewService(
		dispense.NewDialer(cfg.Relay),
		slotRepo,
		machineRepo,
		logg,
		dispenseMetrics,
		cfg.Relay,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			machineService,
			productService,
			planogramService,
			assignmentService,
			overrideService,
			salesService,
			vendorService,
			warehouseService,
			dispenseService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
