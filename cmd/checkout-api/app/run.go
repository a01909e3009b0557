package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/aq2208/gorder-checkout/configs"
	"github.com/aq2208/gorder-checkout/internal/adapter/cache"
	httpadapter "github.com/aq2208/gorder-checkout/internal/adapter/http"
	"github.com/aq2208/gorder-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-checkout/internal/adapter/kafka"
	"github.com/aq2208/gorder-checkout/internal/adapter/observ"
	"github.com/aq2208/gorder-checkout/internal/adapter/queue"
	"github.com/aq2208/gorder-checkout/internal/adapter/repo"
	"github.com/aq2208/gorder-checkout/internal/infrastructure/catalog"
	"github.com/aq2208/gorder-checkout/internal/infrastructure/challenge"
	"github.com/aq2208/gorder-checkout/internal/infrastructure/intake"
	"github.com/aq2208/gorder-checkout/internal/logging"
	"github.com/aq2208/gorder-checkout/internal/security"
	"github.com/aq2208/gorder-checkout/internal/session"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

type App struct {
	Router  *gin.Engine
	Catalog *cache.CatalogCache
	Health  *HealthServer
}

// InitWithConfig wires the API. Redis, RabbitMQ and MySQL are optional:
// without them sessions and confirmations live in process memory, order
// intents are not published and the ops endpoint is not mounted.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	log := logging.FromCtx(ctx)
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		sessions      session.Store = session.NewMemoryStore()
		confirmations usecase.ConfirmationStore
		idem          usecase.IdempotencyStore
		backend       cache.Backend
	)
	if cfg.Redis.Addr != "" {
		rdb, err := connectRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		sessions = cache.NewRedisSessionStore(rdb, cfg.Session.TTL)
		confirmations = cache.NewRedisConfirmationStore(rdb, cfg.Session.TTL)
		idem = cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
		backend = cache.NewRedisBackend(rdb, cfg.Catalog.CacheTTL)
	} else {
		log.Warn("redis not configured, using in-process stores")
		confirmations = cache.NewMemoryConfirmationStore(cfg.Session.TTL)
		idem = cache.NewMemoryIdempotencyStore(cfg.Idempotency.TTL)
		backend = cache.NewLRUBackend(cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	}

	var publisher usecase.IntentPublisher = queue.NopPublisher{}
	if cfg.Rabbit.URL != "" {
		conn, ch, err := openChannel(ctx, cfg.Rabbit.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = ch.Close(); _ = conn.Close() })
		producer, err := queue.NewRabbitProducer(ch)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		publisher = producer
	}

	var ops *httpadapter.OpsHandler
	if cfg.MySQL.DSN != "" {
		db, err := repo.Open(ctx, cfg.MySQL.DSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		ops = httpadapter.NewOpsHandler(usecase.NewRecordOrderIntent(repo.NewMySQLOrderIntentRepo(db)))
	}

	metrics := observ.NewRecorder(prometheus.DefaultRegisterer)
	catalogCache := cache.NewCatalogCache(catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout), backend)
	mgr := session.NewManager(sessions)

	var tokens usecase.ChallengeProvider = challenge.Disabled{}
	if cfg.Challenge.URL != "" {
		tokens = challenge.NewClient(cfg.Challenge.URL, cfg.Challenge.Timeout)
	}

	checkoutUC := usecase.NewCheckout(mgr, catalogCache, cfg.Pricing, metrics)
	submitUC := usecase.NewSubmitOrder(usecase.SubmitOrderDeps{
		Sessions:      mgr,
		Intake:        intake.NewClient(cfg.Intake.URL),
		Challenge:     tokens,
		Confirmations: confirmations,
		Idempotency:   idem,
		Publisher:     publisher,
		Metrics:       metrics,
		Rules:         cfg.Pricing,
		Timeout:       cfg.Checkout.SubmitTimeout,
	})

	iss := security.Issuer{
		Secret:   []byte(cfg.Security.JWTSecret),
		Issuer:   cfg.Security.Issuer,
		Audience: cfg.Security.Audience,
		TTL:      cfg.Security.TTL,
	}
	router := httpadapter.NewRouter(
		httpadapter.NewCheckoutHandler(checkoutUC, submitUC),
		ops,
		httpadapter.NewTokenHandler(security.NewClients(cfg.Security.Clients), iss),
		middleware.NewAuthz(iss),
	)

	return &App{Router: router, Catalog: catalogCache, Health: NewHealthServer()}, cleanup, nil
}

// Serve runs the HTTP API, the gRPC health endpoint and, when brokers are
// configured, the catalog change listener until ctx is cancelled.
func Serve(ctx context.Context, cfg configs.Config) error {
	a, cleanup, err := InitWithConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var consumer *kafka.Consumer[usecase.CatalogChangedMsg]
	if len(cfg.Kafka.Brokers) > 0 {
		grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			return err
		}
		defer grp.Close()
		consumer = kafka.NewConsumer[usecase.CatalogChangedMsg](grp, []string{kafka.CatalogTopic}, kafka.NewCatalogChangedHandler(a.Catalog).Handle)
	}

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      a.Router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.FromCtx(gctx).Info("http listening", "addr", cfg.App.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Health.SetServing(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.App.GRPCAddr != "" {
		g.Go(func() error { return a.Health.Serve(gctx, cfg.App.GRPCAddr) })
	}
	if consumer != nil {
		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	a.Health.SetServing(true)
	return g.Wait()
}

// RunLedgerWorker consumes order.intent.submitted events into MySQL until ctx is cancelled.
func RunLedgerWorker(ctx context.Context, cfg configs.Config) error {
	if cfg.Rabbit.URL == "" || cfg.MySQL.DSN == "" {
		return errors.New("ledger-worker needs rabbitmq.url and mysql.dsn")
	}
	db, err := repo.Open(ctx, cfg.MySQL.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	conn, ch, err := openChannel(ctx, cfg.Rabbit.URL)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := queue.Declare(ch); err != nil {
		return err
	}

	record := usecase.NewRecordOrderIntent(repo.NewMySQLOrderIntentRepo(db))
	router := queue.NewRouter(ch, queue.WithPrefetch(20))
	router.Register(queue.QueueName, queue.NewOrderIntentHandler(record))
	if err := router.Start(); err != nil {
		return err
	}
	logging.FromCtx(ctx).Info("ledger worker consuming", "queue", queue.QueueName)

	<-ctx.Done()
	_ = ch.Close()
	router.Wait()
	return nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, cfg configs.Config) error {
	if cfg.MySQL.DSN == "" {
		return errors.New("migrate needs mysql.dsn")
	}
	db, err := repo.Open(ctx, cfg.MySQL.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repo.Migrate(db); err != nil {
		return err
	}
	logging.FromCtx(ctx).Info("migrations applied")
	return nil
}

func connectRedis(ctx context.Context, cfg configs.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	b := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			logging.FromCtx(ctx).Warn("redis not reachable, retrying", "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func openChannel(ctx context.Context, url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := queue.Dial(ctx, url, 8)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
