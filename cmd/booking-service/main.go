package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FleetLinkRent/FleetLinkRent/internal/booking"
	"github.com/FleetLinkRent/FleetLinkRent/internal/catalog"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/config"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/db"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/server"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/tracing"
	"github.com/FleetLinkRent/FleetLinkRent/internal/notify"
)

var (
	configPath = flag.String("config", "configs/booking-service.json", "配置文件路径")
	consulAddr = flag.String("consul", "", "从 Consul KV 加载配置，格式 host:port（优先于 -config）")
)

func main() {
	flag.Parse()

	// 加载配置：指定了 -consul 时走 KV，否则读本地文件
	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Backend, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化 MySQL
	gdb, err := db.NewMySQL(
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Database,
		cfg.Database.MaxIdle, cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&catalog.CarType{}, &catalog.Hub{}, &catalog.Vehicle{}, &catalog.AddOn{},
		&booking.Reservation{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// 事件通知：Redis 可用则接入事件流，否则降级为空实现
	var notifier booking.Notifier = notify.Nop{}
	if cfg.Redis.Host != "" {
		rdb := db.NewRedis(cfg.Redis)
		notifier = notify.NewRedisNotifier(rdb, cfg.Redis.Stream, log)
	}

	catalogRepo := catalog.NewRepo(gdb)
	svc := booking.NewService(
		booking.NewGormStore(gdb),
		booking.NewCatalogStore(catalogRepo),
		notifier,
		log,
	)

	bookingHandler := booking.NewHandler(svc, log)
	catalogHandler := catalog.NewHandler(catalogRepo, svc, log)

	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) error {
		bookingHandler.RegisterRoutes(r)
		catalogHandler.RegisterRoutes(r)
		return nil
	}); err != nil {
		log.Fatalf("booking-service exited with error: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	if *consulAddr == "" {
		return config.LoadConfig(*configPath)
	}
	host, portStr, ok := strings.Cut(*consulAddr, ":")
	if !ok {
		return nil, fmt.Errorf("invalid -consul address %q, want host:port", *consulAddr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid -consul port %q: %w", portStr, err)
	}
	return config.LoadConfigFromConsulKV(host, port, config.DefaultKVKey("booking-service"))
}
