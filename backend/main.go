package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/philosofium/coursemarket/backend/config"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/middleware"
	"github.com/philosofium/coursemarket/backend/routes"
	"github.com/philosofium/coursemarket/backend/store"
	"github.com/philosofium/coursemarket/backend/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("could not open document store", zap.Error(err))
	}

	svc := routes.NewServices(st, logger)
	ctx := context.Background()
	if err := bootstrap(ctx, svc, cfg, logger); err != nil {
		logger.Fatal("could not initialize backend", zap.Error(err))
	}

	app := fiber.New(fiber.Config{AppName: "course-marketplace"})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	routes.SetupRoutes(app, svc, cfg, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("store", cfg.DBDriver))
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.DocumentStore, error) {
	if cfg.DBDriver == "memory" {
		logger.Warn("using in-memory document store, data is lost on exit")
		return store.NewMemoryStore(), nil
	}
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	gs := store.NewGormStore(db, logger)
	if err := gs.Migrate(); err != nil {
		return nil, err
	}
	return gs, nil
}

// bootstrap creates the singleton documents and grants the configured admins.
func bootstrap(ctx context.Context, svc *routes.Services, cfg *config.Config, logger *zap.Logger) error {
	if err := svc.Stats.Initialize(ctx); err != nil {
		return err
	}
	if err := svc.Settings.Initialize(ctx); err != nil {
		return err
	}
	for _, id := range cfg.AdminUsers {
		if _, err := svc.Directory.Ensure(ctx, identity.Principal{ID: id}); err != nil {
			return err
		}
		if err := svc.Directory.SetAdmin(ctx, id, true); err != nil {
			return err
		}
	}
	if len(cfg.AdminUsers) > 0 {
		logger.Info("admin users granted", zap.Strings("users", cfg.AdminUsers))
	}
	courses := svc.Courses.Load(ctx)
	logger.Info("catalog loaded", zap.Int("courses", len(courses)))
	return nil
}
