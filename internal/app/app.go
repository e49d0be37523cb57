package app

import (
	"context"
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coursecart/server/internal/module/auth"
	"github.com/coursecart/server/internal/module/cart"
	"github.com/coursecart/server/internal/module/catalog"
	"github.com/coursecart/server/internal/module/notification"
	"github.com/coursecart/server/internal/module/order"
	"github.com/coursecart/server/internal/module/payment"
	"github.com/coursecart/server/internal/module/payment/gateway"
	"github.com/coursecart/server/internal/module/transaction"
	sharedcache "github.com/coursecart/server/internal/shared/cache"
	"github.com/coursecart/server/internal/shared/config"
	"github.com/coursecart/server/internal/shared/database"
	"github.com/coursecart/server/internal/shared/events"
	"github.com/coursecart/server/internal/shared/logger"
	"github.com/coursecart/server/internal/shared/metrics"
	"github.com/coursecart/server/internal/shared/middleware"
)

// App wires configuration, storage, the gateway registry and the
// feature modules together.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine
	cron   *cron.Cron

	eventBus *events.Bus
	metrics  *metrics.Metrics

	jwtManager *auth.JWTManager

	cartHandler        *cart.Handler
	paymentHandler     *payment.Handler
	paymentService     *payment.Service
	transactionHandler *transaction.Handler
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config: cfg,
		logger: log,
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := database.AutoMigrate(db,
		&catalog.Course{},
		&catalog.Child{},
		&cart.CartItem{},
		&payment.Payment{},
		&payment.PaymentItem{},
		&order.Order{},
		&order.OrderItem{},
	); err != nil {
		return nil, err
	}

	redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	app.redis = redisClient

	app.eventBus = events.NewBus(log)
	app.metrics = metrics.New(prometheus.DefaultRegisterer)

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()
	app.setupScheduler()

	return app, nil
}

func (a *App) initModules() error {
	cfg := a.config

	a.jwtManager = auth.NewJWTManager(&auth.JWTConfig{
		Secret:            cfg.Auth.JWTSecret,
		AccessTokenExpiry: cfg.Auth.AccessTokenExpiry,
		Issuer:            cfg.Auth.Issuer,
	})

	catalogRepo := catalog.NewRepository(a.db)

	cartRepo := cart.NewRepository(a.db)
	cartService := cart.NewService(cartRepo, catalogRepo, a.logger)
	a.cartHandler = cart.NewHandler(cartService)

	registry := gateway.NewRegistry()
	if cfg.Gateway.Stripe.APIKey != "" {
		stripeProvider := gateway.NewStripeProvider(&gateway.StripeConfig{
			APIKey:        cfg.Gateway.Stripe.APIKey,
			WebhookSecret: cfg.Gateway.Stripe.WebhookSecret,
			Currency:      cfg.Gateway.Stripe.Currency,
			ReturnBaseURL: cfg.Gateway.ReturnBaseURL,
		})
		registry.Register(gateway.WithBreaker(stripeProvider, a.logger))
	}
	if cfg.Gateway.Alipay.AppID != "" {
		alipayProvider, err := gateway.NewAlipayProvider(&gateway.AlipayConfig{
			AppID:           cfg.Gateway.Alipay.AppID,
			PrivateKey:      cfg.Gateway.Alipay.PrivateKey,
			AlipayPublicKey: cfg.Gateway.Alipay.AlipayPublicKey,
			IsProd:          cfg.Gateway.Alipay.IsProd,
			NotifyURL:       cfg.Gateway.NotifyBaseURL + "/alipay",
			ReturnBaseURL:   cfg.Gateway.ReturnBaseURL,
		})
		if err != nil {
			return fmt.Errorf("init alipay provider: %w", err)
		}
		registry.Register(gateway.WithBreaker(alipayProvider, a.logger))
	}

	orderRepo := order.NewRepository(a.db)
	materializer := order.NewMaterializer(orderRepo, cartService, a.logger)

	paymentRepo := payment.NewRepository(a.db)
	a.paymentService = payment.NewService(
		paymentRepo,
		cartService,
		materializer,
		registry,
		a.eventBus,
		a.metrics,
		a.logger,
		payment.ServiceConfig{
			DefaultProvider: cfg.Gateway.DefaultProvider,
			ExpireAfter:     cfg.Payment.ExpireAfter,
		},
	)
	a.paymentHandler = payment.NewHandler(a.paymentService)

	transactionRepo := transaction.NewRepository(a.db)
	transactionCache := transaction.NewRedisCache(a.redis, cfg.Payment.HistoryCacheTTL, a.logger)
	transactionService := transaction.NewService(transactionRepo, transactionCache, a.logger)
	a.transactionHandler = transaction.NewHandler(transactionService)

	a.eventBus.Register(transaction.NewSettlementHandler(transactionService, a.logger))
	a.eventBus.Register(notification.NewSettlementNotifier(notification.NewLogSender(a.logger), a.logger))

	return nil
}

func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")

	public := v1.Group("")

	protected := v1.Group("")
	protected.Use(auth.Middleware(a.jwtManager))

	a.paymentHandler.RegisterRoutes(public, protected)
	a.transactionHandler.RegisterRoutes(protected)
	a.cartHandler.RegisterRoutes(protected)
}

// setupScheduler wires the pending-payment expiry sweep.
func (a *App) setupScheduler() {
	a.cron = cron.New()
	_, err := a.cron.AddFunc(a.config.Payment.SweepSpec, func() {
		if _, err := a.paymentService.ExpireDue(context.Background()); err != nil {
			a.logger.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		a.logger.Error("schedule expiry sweep failed",
			zap.String("spec", a.config.Payment.SweepSpec),
			zap.Error(err))
		return
	}
	a.cron.Start()
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop stops the scheduler and releases resources.
func (a *App) Stop() {
	if a.cron != nil {
		ctx := a.cron.Stop()
		<-ctx.Done()
	}

	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
}
