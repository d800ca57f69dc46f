/*
Package main is the entry point for the TicketDesk server.

It is responsible for loading configuration, initializing the global logging system,
opening the ticket store, setting up the HTTP server, starting the real-time Hub,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"ticketdesk/internal/app/chat"
	"ticketdesk/internal/app/db"
	"ticketdesk/internal/app/storage"
	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/configs"
	"ticketdesk/internal/handler"
	"ticketdesk/internal/pkg/logx"
	"ticketdesk/internal/pkg/pow"
)

func main() {
	var envFile string
	var migrateOnly bool

	flags := pflag.NewFlagSet("ticketdesk", pflag.ExitOnError)
	flags.StringVar(&envFile, "env-file", "", "load environment variables from this file before reading configuration")
	flags.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	_ = flags.Parse(os.Args[1:])

	// Load configuration from environment variables
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := configs.LoadConfig(envFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Str("store_driver", cfg.StoreDriver).
		Bool("attachments", cfg.S3BucketName != "").
		Dur("typing_ttl", cfg.TypingTTL).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the ticket store
	var store ticket.Store
	switch cfg.StoreDriver {
	case configs.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to open ticket database")
		}
		defer pool.Close()

		store = db.NewTicketStore(pool)
	case configs.StoreDriverMemory:
		logx.Warn("Using the in-memory ticket store; tickets are lost on restart.")
		store = ticket.NewMemoryStore()
	}

	if migrateOnly {
		if cfg.StoreDriver != configs.StoreDriverPostgres {
			logx.Fatal(errors.New("--migrate-only needs STORE_DRIVER=postgres"), "Nothing to migrate")
		}
		logx.Info("Migrations applied, exiting.")
		return
	}

	// Attachment storage is optional
	var storageService storage.StorageService
	var gatewayOpts []chat.GatewayOption
	storageCfg := storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3Region:          cfg.S3Region,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	}
	if storageCfg.Enabled() {
		storageService, err = storage.NewStorageService(ctx, storageCfg)
		if err != nil {
			logx.Fatal(err, "Failed to initialize attachment storage")
		}
		gatewayOpts = append(gatewayOpts, chat.WithObjectStat(storageService))
	} else {
		logx.Warn("S3_BUCKET_NAME is not set; attachments are disabled.")
	}
	gatewayOpts = append(gatewayOpts, chat.WithLimits(cfg.MessageMaxLength, cfg.MessageMaxAttachments))

	// Initialize the real-time Hub
	hub := chat.NewHub(chat.NewGateway(store, gatewayOpts...), chat.HubConfig{TypingTTL: cfg.TypingTTL})

	powManager := pow.NewManager(cfg.PowDifficulty)
	defer powManager.Stop()

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Hub:            hub,
		Store:          store,
		Config:         cfg,
		StorageService: storageService,
		Pow:            powManager,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("TicketDesk server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Websocket connections are hijacked and not covered by server.Shutdown.
	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
