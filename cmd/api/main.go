package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/repository/memstore"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/config"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"
	"go-inventory-ledger/pkg/metrics"
)

// stores is the persistence the services run on.
type stores struct {
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	feedback     repository.FeedbackRepository
	users        repository.UserRepository
	tx           repository.TxRunner
	close        func() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, File: cfg.Log.File})
	defer log.Close()
	if envErr != nil {
		log.Debug().Msg(".env file not found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	g, gctx := errgroup.WithContext(ctx)

	// 4. Setup WebSocket Hub
	hub := ws.NewHub(cfg.WS.SendBuffer, log.Component("ws"), m)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	var publisher service.Publisher = hub
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		publisher = ws.NewRedisPublisher(rdb, cfg.Redis.ChannelPrefix, log.Component("redis"))
		relay := ws.NewRedisRelay(rdb, cfg.Redis.ChannelPrefix, hub, log.Component("redis"))
		g.Go(func() error { return relay.Run(gctx) })
		log.Info().Str("addr", cfg.Redis.Addr).Msg("notifications relayed through redis")
	}

	var sink service.TransactionSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Component("kafka"), m)
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("ledger events published to kafka")
	}

	// 5. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL(), cfg.JWT.Issuer)

	invService := service.NewInventoryService(service.InventoryDeps{
		Products:     st.products,
		Transactions: st.transactions,
		Tx:           st.tx,
		Publisher:    publisher,
		Sink:         sink,
		Log:          log.Zerolog(),
		Metrics:      m,
		StoreTimeout: cfg.Ledger.StoreTimeout,
	})
	feedbackService := service.NewFeedbackService(st.feedback, st.products, log.Zerolog(), m, cfg.Ledger.StoreTimeout)
	dashService := service.NewDashboardService(st.transactions, cfg.Ledger.LowStockThreshold)
	authService := service.NewAuthService(st.users, st.tx, tokens, log.Zerolog())
	userService := service.NewUserService(st.users, log.Zerolog())

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())
	app.Use(middleware.Metrics(m))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": cfg.DB.Driver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// 7. Routes
	handler.SetupRoutes(app, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Inventory: handler.NewInventoryHandler(invService),
		Dashboard: handler.NewDashboardHandler(dashService),
		Feedback:  handler.NewFeedbackHandler(feedbackService),
		User:      handler.NewUserHandler(userService),
		WS:        handler.NewWSHandler(hub),
	}, tokens)

	// 8. Graceful Shutdown
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Str("env", cfg.App.Env).Msg("listening")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		return app.Shutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}

func openStores(cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("using the in-memory store; data is lost on exit")
		s := memstore.New()
		return &stores{
			products:     s.Products(),
			transactions: s.Transactions(),
			feedback:     s.Feedback(),
			users:        s.Users(),
			tx:           s,
			close:        func() error { return nil },
		}, nil
	}

	db, err := database.ConnectDB(cfg.DB.ConnectionString(), log.Component("gorm"))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	log.Info().Msg("database connected and migrated")

	return &stores{
		products:     repository.NewProductRepo(db),
		transactions: repository.NewTransactionRepo(db),
		feedback:     repository.NewFeedbackRepo(db),
		users:        repository.NewUserRepo(db),
		tx:           repository.NewTxRunner(db),
		close:        func() error { return database.Close(db) },
	}, nil
}
