package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/loyalty-engine/internal/config"
	"github.com/nimasrn/loyalty-engine/internal/handlers"
	"github.com/nimasrn/loyalty-engine/internal/repository"
	"github.com/nimasrn/loyalty-engine/internal/services"
	"github.com/nimasrn/loyalty-engine/pkg/db"
	xhttp "github.com/nimasrn/loyalty-engine/pkg/http"
	"github.com/nimasrn/loyalty-engine/pkg/logger"
	"github.com/nimasrn/loyalty-engine/pkg/prom"
	"github.com/nimasrn/loyalty-engine/pkg/redis"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	customerStore, historyStore, err := buildStores()
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		return
	}

	var guard *services.IdempotencyGuard
	if addr := config.Get().RedisAddr; addr != "" {
		redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{addr},
			ClientName: "default",
			DB:         config.Get().RedisDatabase,
			Username:   config.Get().RedisUsername,
			Password:   config.Get().RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		guard = services.NewIdempotencyGuard(redisAdap, services.DefaultIdempotencyConfig())
	}

	if ns := config.Get().PromNamespace; ns != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, config.Get().AppEnv, ns); err != nil {
			logger.Error("failed to register metrics", "error", err)
		}
		if addr := config.Get().AppDebugMetricsAddr; addr != "" {
			go prom.ListenAndServer(addr, config.Get().AppDebugMetricsURI)
		}
	}

	loyaltyService := services.NewLoyaltyService(customerStore, historyStore)

	customerHandler := handlers.NewCustomerHandler(loyaltyService, guard)
	historyHandler := handlers.NewHistoryHandler(loyaltyService)
	healthHandler := handlers.NewHealthHandler()

	g := s.Router.Group("/api/v1")
	handlers.RegisterCustomerRoutes(g, customerHandler)
	handlers.RegisterHistoryRoutes(g, historyHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(config.Get().HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
	logger.Sync()
}

// buildStores picks the ledger backend from config. The DB-backed stores keep
// the same load/save contract as the CSV files, the engine cannot tell them
// apart.
func buildStores() (services.CustomerStore, services.HistoryStore, error) {
	cfg := config.Get()
	switch cfg.StorageDriver {
	case "postgres":
		conn, err := db.Create(db.Config{
			Driver:   db.DriverPostgres,
			User:     cfg.PostgresUser,
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			Password: cfg.PostgresPassword,
			Database: cfg.PostgresDatabase,
		}, cfg.AppEnv == "dev")
		if err != nil {
			return nil, nil, err
		}
		return repository.NewDBCustomerStore(conn), repository.NewDBHistoryStore(conn), nil
	case "sqlite":
		conn, err := db.Create(db.Config{
			Driver: db.DriverSQLite,
			Path:   cfg.SQLitePath,
		}, cfg.AppEnv == "dev")
		if err != nil {
			return nil, nil, err
		}
		if err := conn.AutoMigrate(&repository.CustomerEntity{}, &repository.TransactionEntity{}); err != nil {
			return nil, nil, err
		}
		return repository.NewDBCustomerStore(conn), repository.NewDBHistoryStore(conn), nil
	default:
		return repository.NewCSVCustomerStore(cfg.CustomersCSVPath),
			repository.NewCSVHistoryStore(cfg.HistoryCSVPath), nil
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
