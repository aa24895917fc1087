package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	forecastapp "github.com/wyfcoding/cashflow/internal/forecast/application"
	forecasthttp "github.com/wyfcoding/cashflow/internal/forecast/interfaces/http"
	ledgerapp "github.com/wyfcoding/cashflow/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/cashflow/internal/ledger/domain"
	ledgermsg "github.com/wyfcoding/cashflow/internal/ledger/infrastructure/messaging"
	ledgermysql "github.com/wyfcoding/cashflow/internal/ledger/infrastructure/persistence/mysql"
	ledgerhttp "github.com/wyfcoding/cashflow/internal/ledger/interfaces/http"
	orgapp "github.com/wyfcoding/cashflow/internal/organization/application"
	orgdomain "github.com/wyfcoding/cashflow/internal/organization/domain"
	orgmysql "github.com/wyfcoding/cashflow/internal/organization/infrastructure/persistence/mysql"
	orghttp "github.com/wyfcoding/cashflow/internal/organization/interfaces/http"
	reconapp "github.com/wyfcoding/cashflow/internal/reconciliation/application"
	recondomain "github.com/wyfcoding/cashflow/internal/reconciliation/domain"
	reconmsg "github.com/wyfcoding/cashflow/internal/reconciliation/infrastructure/messaging"
	reconmysql "github.com/wyfcoding/cashflow/internal/reconciliation/infrastructure/persistence/mysql"
	reconhttp "github.com/wyfcoding/cashflow/internal/reconciliation/interfaces/http"
	scenarioapp "github.com/wyfcoding/cashflow/internal/scenario/application"
	scenariodomain "github.com/wyfcoding/cashflow/internal/scenario/domain"
	scenariomysql "github.com/wyfcoding/cashflow/internal/scenario/infrastructure/persistence/mysql"
	scenariohttp "github.com/wyfcoding/cashflow/internal/scenario/interfaces/http"

	"github.com/wyfcoding/cashflow/pkg/cache"
	"github.com/wyfcoding/cashflow/pkg/config"
	"github.com/wyfcoding/cashflow/pkg/db"
	"github.com/wyfcoding/cashflow/pkg/logger"
	"github.com/wyfcoding/cashflow/pkg/metrics"
	"github.com/wyfcoding/cashflow/pkg/middleware"
	"github.com/wyfcoding/cashflow/pkg/ratelimit"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	log := logger.Get().With("service", cfg.ServiceName)

	// 3. Database
	database, err := db.Init(db.Config{
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		panic(fmt.Sprintf("connect db failed: %v", err))
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.Project{},
		&orgdomain.Milestone{},
		&orgdomain.SupplierClaim{},
		&orgdomain.ForecastLine{},
		&scenariodomain.Scenario{},
		&scenariodomain.Shift{},
		&ledgerdomain.ActualTransaction{},
		&recondomain.VarianceMatch{},
	); err != nil {
		panic(fmt.Sprintf("migrate db failed: %v", err))
	}

	// 4. Optional redis: forecast cache and rate limiting
	var forecastCache *cache.Cache
	var limiter ratelimit.RateLimiter
	if cfg.Redis.Enabled {
		forecastCache, err = cache.New(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			panic(fmt.Sprintf("connect redis failed: %v", err))
		}
		defer forecastCache.Close()
		limiter = ratelimit.NewRedisRateLimiter(forecastCache.Client(), cfg.RateLimit.QPS, cfg.RateLimit.Burst)
	}

	// 5. Infrastructure
	orgRepo := orgmysql.NewOrganizationRepository(database.DB)
	projectRepo := orgmysql.NewProjectRepository(database.DB)
	milestoneRepo := orgmysql.NewMilestoneRepository(database.DB)
	claimRepo := orgmysql.NewSupplierClaimRepository(database.DB)
	lineRepo := orgmysql.NewForecastLineRepository(database.DB)
	scenarioRepo := scenariomysql.NewScenarioRepository(database.DB)
	shiftRepo := scenariomysql.NewShiftRepository(database.DB)
	txnRepo := ledgermysql.NewTransactionRepository(database.DB)
	matchRepo := reconmysql.NewMatchRepository(database.DB)

	m := metrics.New(cfg.ServiceName)

	// 6. Application
	scenarioService := scenarioapp.NewScenarioService(scenarioRepo, shiftRepo, milestoneRepo, claimRepo, log)
	orgService := orgapp.NewOrganizationService(orgRepo, projectRepo, milestoneRepo, claimRepo, lineRepo, scenarioService, log)
	ledgerService := ledgerapp.NewLedgerService(txnRepo, log)

	forecastService := forecastapp.NewForecastService(
		orgRepo, projectRepo, milestoneRepo, claimRepo, lineRepo, txnRepo, scenarioService, log,
	).WithMetrics(m)
	if forecastCache != nil && cfg.Forecast.CacheTTL > 0 {
		forecastService.WithCache(forecastCache, time.Duration(cfg.Forecast.CacheTTL)*time.Second)
	}

	reconService := reconapp.NewReconciliationService(
		matchRepo, orgRepo, projectRepo, milestoneRepo, claimRepo, txnRepo,
		recondomain.Config{
			WindowDays:    cfg.Reconcile.WindowDays,
			AmountWeight:  cfg.Reconcile.AmountWeight,
			TimingWeight:  cfg.Reconcile.TimingWeight,
			MinConfidence: cfg.Reconcile.MinConfidence,
		},
		log,
	).WithMetrics(m)

	// 7. Messaging
	var consumer *ledgermsg.Consumer
	if cfg.Kafka.Enabled {
		consumer = ledgermsg.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.LedgerTopic, cfg.Kafka.GroupID, ledgerService, log)
		defer consumer.Close()

		publisher := reconmsg.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ReconcileTopic, log)
		defer publisher.Close()
		reconService.WithPublisher(publisher)
	}

	// 8. HTTP
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery(), middleware.CORS(), middleware.Metrics(m))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(limiter))
	}

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) {
			if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "READY"})
		})
	}
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}
	pp := r.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}

	api := r.Group("/api/v1")
	orghttp.NewHandler(orgService).RegisterRoutes(api)
	scenariohttp.NewHandler(scenarioService).RegisterRoutes(api)
	forecasthttp.NewHandler(forecastService).RegisterRoutes(api)
	ledgerhttp.NewHandler(ledgerService).RegisterRoutes(api)
	reconhttp.NewHandler(reconService).RegisterRoutes(api)

	// 9. Start
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(rootCtx)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if consumer != nil {
		g.Go(func() error {
			slog.Info("ledger consumer starting", "topic", cfg.Kafka.LedgerTopic)
			return consumer.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
