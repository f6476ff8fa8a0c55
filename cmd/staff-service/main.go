package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/FleetLinkRent/FleetLinkRent/internal/common/config"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/db"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/server"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/tracing"
	"github.com/FleetLinkRent/FleetLinkRent/internal/staff"
)

var (
	configPath = flag.String("config", "configs/staff-service.json", "配置文件路径")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
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
	if err := gdb.AutoMigrate(&staff.Staff{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	handler := staff.NewHandler(gdb, cfg.Auth, log)

	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) error {
		handler.RegisterRoutes(r)
		return nil
	}); err != nil {
		log.Fatalf("staff-service exited with error: %v", err)
	}
}
