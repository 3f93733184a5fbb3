package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/relationsdb/internal/config"
	"github.com/localnerve/relationsdb/internal/database"
	"github.com/localnerve/relationsdb/internal/handlers"
	"github.com/localnerve/relationsdb/internal/metrics"
	"github.com/localnerve/relationsdb/internal/middleware"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/utils"
	"github.com/localnerve/relationsdb/internal/validation"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/localnerve/relationsdb/docs/api" // Swagger docs
)

// @title RelationsDB API
// @version 1.0.0
// @description Friendships, channels, guilds and guild role permissions, each command one transaction
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/relationsdb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	var envFilename string
	flag.StringVar(&envFilename, "f", os.Getenv("ENV_FILE"), "path to the .env file")
	flag.Parse()

	if err := config.LoadEnvFile(envFilename); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := newLogger(cfg)
	slog.SetDefault(appLogger)

	// Connect to database (app pool)
	appDB, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to app database: %v", err)
	}
	defer database.Close(appDB)

	// Run auto-migrations
	if err := database.AutoMigrate(appDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to database (user pool). Embedded databases have one store and no users.
	readDB := appDB
	if !cfg.IsEmbedded() && cfg.DBUser != "" {
		userDB, err := database.ConnectUser(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to user database: %v", err)
		}
		defer database.Close(userDB)
		readDB = userDB
	}

	commandMetrics := metrics.NewCommands("relationsdb", prometheus.DefaultRegisterer)
	validator := validation.New(validation.Limits{
		NameMin:    cfg.NameMinLength,
		NameMax:    cfg.NameMaxLength,
		MessageMax: cfg.MessageMaxLength,
	})
	policy := services.AddMemberPolicy(cfg.ChannelAddPolicy)

	hosts := handlers.Hosts{
		Commands: &services.Host{
			DB:        appDB,
			Validator: validator,
			Policy:    policy,
			Logger:    appLogger.With("pool", "app"),
			Metrics:   commandMetrics,
		},
		Reads: &services.Host{
			DB:        readDB,
			Validator: validator,
			Policy:    policy,
			Logger:    appLogger.With("pool", "user"),
			Metrics:   commandMetrics,
		},
	}

	// Create Fiber app
	app := fiber.New(handlers.AppConfig())

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New())

	// Prometheus metrics
	prom := fiberprometheus.New("relationsdb")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api, every route needs a session
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())
	handlers.Register(api, middleware.AuthUser(cfg, nil), hosts)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})

	log.Printf("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// newLogger builds the command logger from LOG_LEVEL and LOG_FORMAT
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
