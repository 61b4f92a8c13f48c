package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"github.com/flicky/marketplace-api/internal/auth"
	"github.com/flicky/marketplace-api/internal/cache"
	"github.com/flicky/marketplace-api/internal/config"
	"github.com/flicky/marketplace-api/internal/events"
	"github.com/flicky/marketplace-api/internal/handler"
	"github.com/flicky/marketplace-api/internal/metrics"
	"github.com/flicky/marketplace-api/internal/repository"
	"github.com/flicky/marketplace-api/internal/service"
	"github.com/flicky/marketplace-api/internal/worker"
)

const idempotencyTTL = 24 * time.Hour

var (
	servePort    int
	serveMigrate bool
	serveWorker  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the order worker",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides SERVER_PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
	serveCmd.Flags().BoolVar(&serveWorker, "worker", true, "run the order event worker in this process")
}

// broker bundles whatever the configured broker kind needs.
type broker struct {
	publisher events.Publisher
	check     handler.Check
	start     func(ctx context.Context, w *worker.OrderWorker) error
	close     func()
}

func serve(parent context.Context, cfg *config.Config) error {
	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pool, err := openPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to PostgreSQL")

	if serveMigrate {
		applied, err := repository.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "versions", applied)
	}

	// Redis
	redisClient, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// Broker
	b, err := openBroker(cfg.Broker, log)
	if err != nil {
		return err
	}
	defer b.close()

	// Metrics
	reg := metrics.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(reg, "api")
	orderMetrics := metrics.NewOrderMetrics(reg)

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	// Redis stores
	productCache := cache.NewProductCache(redisClient, cfg.Cache.ProductTTL)
	statsStore := cache.NewSellerStatsStore(redisClient)
	seenStore := cache.NewIdempotencyStore(redisClient, idempotencyTTL)

	// Services
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.PreviousSecrets, cfg.JWT.Expiration)
	authSvc := service.NewAuthService(userRepo, tokens)
	profileSvc := service.NewProfileService(userRepo)
	productSvc := service.NewProductService(productRepo, productCache, log)
	cartSvc := service.NewCartService(cartRepo, productRepo, cfg.Cart.MergeDuplicates)
	orderSvc := service.NewOrderService(orderRepo, b.publisher, orderMetrics, log)
	statsSvc := service.NewStatsService(statsStore)

	// Worker
	if serveWorker && b.start != nil {
		orderWorker := worker.NewOrderWorker(seenStore, statsStore, productRepo, orderMetrics, log)
		if err := b.start(ctx, orderWorker); err != nil {
			return fmt.Errorf("start order worker: %w", err)
		}
	}

	checks := []handler.Check{
		{Name: "postgres", Ping: pool.Ping},
		{Name: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}
	if b.check.Ping != nil {
		checks = append(checks, b.check)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Product: handler.NewProductHandler(productSvc),
		Cart:    handler.NewCartHandler(cartSvc),
		Order:   handler.NewOrderHandler(orderSvc),
		Profile: handler.NewProfileHandler(profileSvc),
		Stats:   handler.NewStatsHandler(statsSvc),
		Health:  handler.NewHealthHandler(checks...),
	}, handler.RouterConfig{
		Tokens:         tokens,
		Log:            log,
		Metrics:        serverMetrics,
		MetricsHandler: metrics.Handler(reg),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port, "broker", cfg.Broker.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	log.Info("server stopped")
	return nil
}

func openBroker(cfg config.BrokerConfig, log *slog.Logger) (*broker, error) {
	switch cfg.Kind {
	case config.BrokerRabbitMQ:
		return openRabbitMQ(cfg, log)
	case config.BrokerKafka:
		return openKafka(cfg), nil
	default:
		log.Warn("no broker configured, order events are dropped")
		return &broker{publisher: events.Noop{}, close: func() {}}, nil
	}
}

func openRabbitMQ(cfg config.BrokerConfig, log *slog.Logger) (*broker, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	pubCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open RabbitMQ channel: %w", err)
	}
	if err := events.SetupRabbitMQ(pubCh); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setup RabbitMQ: %w", err)
	}
	log.Info("connected to RabbitMQ")

	var consumer *worker.RabbitMQConsumer
	return &broker{
		publisher: events.NewRabbitMQPublisher(pubCh),
		check: handler.Check{Name: "rabbitmq", Ping: func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}},
		start: func(ctx context.Context, w *worker.OrderWorker) error {
			ch, err := conn.Channel()
			if err != nil {
				return fmt.Errorf("open consumer channel: %w", err)
			}
			consumer = worker.NewRabbitMQConsumer(ch, w)
			return consumer.Start(ctx)
		},
		close: func() {
			if consumer != nil {
				consumer.Stop()
			}
			pubCh.Close()
			conn.Close()
		},
	}, nil
}

func openKafka(cfg config.BrokerConfig) *broker {
	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic)
	var consumer *worker.KafkaConsumer
	done := make(chan struct{})
	return &broker{
		publisher: publisher,
		check: handler.Check{Name: "kafka", Ping: func(ctx context.Context) error {
			if len(cfg.KafkaBrokers) == 0 {
				return errors.New("no kafka brokers configured")
			}
			conn, err := kafka.DialContext(ctx, "tcp", cfg.KafkaBrokers[0])
			if err != nil {
				return err
			}
			return conn.Close()
		}},
		start: func(ctx context.Context, w *worker.OrderWorker) error {
			consumer = worker.NewKafkaConsumer(cfg.KafkaBrokers, cfg.Topic, cfg.KafkaGroupID, w)
			go func() {
				defer close(done)
				_ = consumer.Run(ctx)
			}()
			return nil
		},
		close: func() {
			if consumer != nil {
				consumer.Close()
				<-done
			}
			publisher.Close()
		},
	}
}
