package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"arespricing/internal/api"
	"arespricing/internal/audit"
	"arespricing/internal/auth"
	"arespricing/internal/cache"
	"arespricing/internal/concurrency"
	"arespricing/internal/config"
	"arespricing/internal/observability"
	"arespricing/internal/orchestrator"
	"arespricing/internal/ratelimit"
	"arespricing/internal/resilience"
	"arespricing/internal/store"
	"arespricing/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DBDSN()), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Fatal("db connection failed: ", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("db handle unavailable: ", err)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	otelShutdown, err := observability.SetupOTelSDK(context.Background(), db)
	if err != nil {
		log.Fatal("otel setup failed: ", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	logger := observability.NewLogger(db, "locate-pricing-engine")
	logger.Info(context.Background(), "starting locate-pricing-engine", nil)

	metrics := observability.NewMetricsCollector(db, "locate-pricing-engine")

	cacheStore, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis connection failed: ", err)
	}
	defer cacheStore.Close()

	ttls := cache.TTLs{
		BorrowRate:   time.Duration(cfg.CacheTTLBorrowRate) * time.Second,
		Volatility:   time.Duration(cfg.CacheTTLVolatility) * time.Second,
		EventRisk:    time.Duration(cfg.CacheTTLEventRisk) * time.Second,
		BrokerConfig: time.Duration(cfg.CacheTTLBrokerConfig) * time.Second,
		Calculation:  time.Duration(cfg.CacheTTLCalculation) * time.Second,
		MinRate:      time.Duration(cfg.CacheTTLMinRate) * time.Second,
		RateLimit:    time.Duration(cfg.CacheTTLRateLimit) * time.Second,
	}

	configMgr := config.NewManager(db, "locate-pricing-engine")
	defer configMgr.Close()

	breakerConfigFor := func(name string) resilience.CircuitBreakerConfig {
		return resilience.CircuitBreakerConfig{
			Name:             name,
			FailureThreshold: configMgr.GetInt("cb_fail_threshold_"+name, cfg.CBFailureThreshold),
			SuccessThreshold: configMgr.GetInt("cb_success_threshold_"+name, cfg.CBSuccessThreshold),
			Timeout:          time.Duration(configMgr.GetInt("cb_timeout_s_"+name, cfg.CBTimeoutSeconds)) * time.Second,
		}
	}
	breakers := resilience.NewRegistry(breakerConfigFor)
	retryConfig := resilience.RetryConfig{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialWait:    cfg.RetryInitialWait,
		BackoffFactor:  cfg.RetryBackoffFactor,
		MaxWait:        cfg.RetryMaxWait,
		JitterFraction: cfg.RetryJitterFraction,
	}
	guardedFor := func(name string) *resilience.Guarded {
		return resilience.NewGuarded(breakers.Get(name), resilience.NewRetry(retryConfig))
	}

	upstreamTimeout := time.Duration(cfg.UpstreamTimeoutSeconds) * time.Second

	minBorrowRate := mustParseDecimal(cfg.MinBorrowRate)
	volFactor := mustParseDecimal(cfg.VolFactor)
	eventFactor := mustParseDecimal(cfg.EventFactor)
	defaultVolIndex := mustParseDecimal(cfg.DefaultVolatility)

	borrowTransport := upstream.NewHTTPTransport("seclend", cfg.BorrowRateBaseURL, cfg.BorrowRateAPIKey, upstream.AuthStyleAPIKeyHeader, upstreamTimeout, 10, 20)
	volTransport := upstream.NewHTTPTransport("market_volatility", cfg.VolatilityBaseURL, cfg.VolatilityAPIKey, upstream.AuthStyleBearer, upstreamTimeout, 10, 20)
	eventTransport := upstream.NewHTTPTransport("event_calendar", cfg.EventCalendarBaseURL, cfg.EventCalendarAPIKey, upstream.AuthStyleAPIKeyHeader, upstreamTimeout, 10, 20)

	borrowClient := upstream.NewBorrowRateClient(borrowTransport, cacheStore, ttls.BorrowRate, guardedFor("borrow_rate"), minBorrowRate)
	volClient := upstream.NewVolatilityClient(volTransport, cacheStore, ttls.Volatility, guardedFor("volatility"), defaultVolIndex)
	eventClient := upstream.NewEventRiskClient(eventTransport, cacheStore, ttls.EventRisk, guardedFor("event_risk"), 7)

	brokerStore := store.NewBrokerConfigStore(db, cacheStore, ttls.BrokerConfig)
	limitStore := store.NewClientLimitStore(db,
		configMgr.GetInt("limit_standard", cfg.LimitStandard),
		configMgr.GetInt("limit_premium", cfg.LimitPremium))
	limiter := ratelimit.NewLimiter(cacheStore)

	auditEmitter := audit.NewEmitter([]audit.Sink{audit.NewLogSink(), audit.NewGormSink(db)}, 1024, 4)
	seq := concurrency.NewSequenceGenerator(0)

	orch := orchestrator.New(orchestrator.Config{
		BorrowClient:    borrowClient,
		VolClient:       volClient,
		EventClient:     eventClient,
		BrokerStore:     brokerStore,
		CacheStore:      cacheStore,
		AuditEmitter:    auditEmitter,
		Seq:             seq,
		Metrics:         metrics,
		Logger:          logger,
		MinBorrowRate:   minBorrowRate,
		VolFactor:       volFactor,
		EventFactor:     eventFactor,
		CalcCacheTTL:    ttls.Calculation,
		RequestDeadline: time.Duration(cfg.RequestDeadlineSeconds) * time.Second,
	})

	healthChecker := orchestrator.NewHealthChecker(db, cacheStore, breakers, "1.0.0")
	validator := auth.NewValidator(cfg.JWTSecret)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	api.RegisterRoutes(r, api.Deps{
		Orchestrator:    orch,
		HealthChecker:   healthChecker,
		Validator:       validator,
		Limiter:         limiter,
		LimitStore:      limitStore,
		ConfigManager:   configMgr,
		AdminAPIKeyHash: cfg.AdminAPIKeyHash,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(context.Background(), "shutting down locate-pricing-engine", nil)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatal("server forced to shutdown: ", err)
	}
	log.Println("server exiting")
}

// mustParseDecimal parses a decimal configuration value at startup, failing
// fast on a malformed default rather than silently falling back — unlike
// decimalkit.MustParse, which is for request-path values where a fallback
// beats failing the request.
func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("invalid decimal configuration value %q: %v", s, err)
	}
	return d
}
