// Command canopyd serves the Canopy admin and rendering API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/canopysites/canopy/access"
	"github.com/canopysites/canopy/audit"
	"github.com/canopysites/canopy/catalog"
	"github.com/canopysites/canopy/content"
	"github.com/canopysites/canopy/internal/config"
	"github.com/canopysites/canopy/internal/httpapi"
	"github.com/canopysites/canopy/store"
	"github.com/canopysites/canopy/tenant"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	level, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogFormat == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// DynamoDB client.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = &cfg.DynamoDBEndpoint
		}
	})
	storeCfg := store.DefaultConfig()
	storeCfg.Table = cfg.Table
	st := store.New(client, storeCfg)

	// Audit publisher: Redis when configured, otherwise a no-op.
	var publisher audit.Publisher = audit.NopPublisher{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		publisher = audit.NewRedisPublisher(rdb, cfg.AuditChannel)
	}

	// Domain services.
	pages := content.NewRouter(st, nil)
	products := catalog.NewService(st, catalog.NewEdgeManager(st))
	tenants := tenant.NewProvisioner(st)
	verifier := access.NewVerifier(access.StaticSecret(cfg.JWTSecret))

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := httpapi.New(cfg.Addr, httpapi.Deps{
		Tenants:  tenants,
		Pages:    pages,
		Products: products,
		Verifier: verifier,
		Audit:    publisher,
	})

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("table", cfg.Table).Msg("starting server")
		if startErr := srv.Start(); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
