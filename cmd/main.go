/**
 * @description
 * This is the main entry point for the service. It is responsible for
 * initializing all components: configuration, database connection pool and
 * migrations, Redis, the RabbitMQ producer, vendor API clients, the payment
 * gateway client, the repository, the core application service, and the HTTP
 * server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Verification code store backing.
 * - internal/api, internal/app, internal/config, internal/metrics, internal/store: Internal packages.
 * - pkg/alrahuzclient, pkg/smeplugclient, pkg/bilalclient, pkg/paystackclient: Upstream API clients.
 * - pkg/rabbitmq: Notification event producer.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kobocharge/vtu-backend/internal/api"
	"github.com/kobocharge/vtu-backend/internal/app"
	"github.com/kobocharge/vtu-backend/internal/config"
	"github.com/kobocharge/vtu-backend/internal/metrics"
	"github.com/kobocharge/vtu-backend/internal/store"
	"github.com/kobocharge/vtu-backend/migrations"
	"github.com/kobocharge/vtu-backend/pkg/alrahuzclient"
	"github.com/kobocharge/vtu-backend/pkg/bilalclient"
	"github.com/kobocharge/vtu-backend/pkg/paystackclient"
	"github.com/kobocharge/vtu-backend/pkg/rabbitmq"
	"github.com/kobocharge/vtu-backend/pkg/smeplugclient"
)

// paystackAssigner adapts the gateway client to the application's assignment
// contract.
type paystackAssigner struct {
	client        *paystackclient.Client
	preferredBank string
}

func (a *paystackAssigner) RequestAssignment(ctx context.Context, email, firstName, lastName, phone string) error {
	_, err := a.client.AssignDedicatedAccount(ctx, paystackclient.AssignRequest{
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		Phone:         phone,
		PreferredBank: a.preferredBank,
		Country:       "NG",
	})
	return err
}

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}
	if strings.TrimSpace(cfg.PaystackSecretKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"gateway secret must be configured\" env=PAYSTACK_SECRET_KEY")
	}

	log.Printf("level=info component=bootstrap msg=\"starting vtu-backend\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := store.ApplyMigrations(migrateCtx, dbpool, migrations.Files); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"migrations failed\" err=%v", err)
	}
	log.Println("level=info component=bootstrap msg=\"migrations applied\"")

	// Redis backs the verification code store.
	redisOptions, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"redis url parse failed\" err=%v", err)
	}
	redisClient := redis.NewClient(redisOptions)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"redis ping failed\" err=%v", err)
	}
	defer redisClient.Close()
	log.Println("level=info component=bootstrap msg=\"redis connected\"")

	// Initialize the RabbitMQ producer to publish notification events.
	// A broker outage degrades notifications, never settlement.
	var producer rabbitmq.Publisher
	rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	m := metrics.Registry(cfg.MetricsNamespace)

	// Initialize the upstream vendor clients.
	vendors := map[string]app.VendorClient{}
	if cfg.AlrahuzToken != "" {
		vendors["alrahuz"] = alrahuzclient.NewClient(cfg.AlrahuzBaseURL, cfg.AlrahuzToken, m)
	}
	if cfg.SmePlugSecretKey != "" {
		vendors["smeplug"] = smeplugclient.NewClient(cfg.SmePlugBaseURL, cfg.SmePlugSecretKey, m)
	}
	if cfg.BilalToken != "" {
		vendors["bilalsadasub"] = bilalclient.NewClient(cfg.BilalBaseURL, cfg.BilalToken, m)
	}
	if len(vendors) == 0 {
		log.Fatalf("level=fatal component=bootstrap msg=\"no vendor client configured\"")
	}
	if _, ok := vendors[cfg.DefaultVendor]; !ok {
		log.Fatalf("level=fatal component=bootstrap msg=\"default vendor has no configured client\" vendor=%s", cfg.DefaultVendor)
	}

	paystack := paystackclient.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
	assigner := &paystackAssigner{client: paystack, preferredBank: cfg.PaystackBank}

	codes := app.NewCodeStore(redisClient, time.Duration(cfg.CodeTTLMinutes)*time.Minute)

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	service := app.NewService(
		repository,
		vendors,
		cfg.DefaultVendor,
		assigner,
		producer,
		codes,
		m,
	)

	// Requery vendors for purchases whose webhook never arrived.
	sweeper := service.StartSettlementSweeper(5 * time.Minute)
	defer sweeper.Stop()

	// Initialize the API handlers and router.
	handlers := api.NewHandlers(service, cfg.JWTSecret, cfg.PaystackSecretKey, cfg.VendorHookToken)
	router := api.Routes(handlers, cfg.JWTSecret)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
