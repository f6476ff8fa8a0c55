package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/FleetLinkRent/FleetLinkRent/internal/common/config"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/discovery"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/middleware"
)

var (
	configPath = flag.String("config", "configs/api-gateway.json", "配置文件路径")
)

// 路由前缀 -> 后端服务名。服务实例由 Consul 动态解析。
var routeTable = map[string]string{
	"/booking": "booking-service",
	"/catalog": "booking-service",
	"/staff":   "staff-service",
}

type gateway struct {
	watchers map[string]*discovery.Watcher
	breakers map[string]*middleware.CircuitBreaker
	log      logger.Logger
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}

	service := ""
	for prefix, svc := range routeTable {
		if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
			service = svc
			break
		}
	}
	if service == "" {
		http.Error(w, "unknown route", http.StatusNotFound)
		return
	}

	addr, ok := g.watchers[service].Pick()
	if !ok {
		g.log.Warnf("no healthy instance for %s", service)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	target := &url.URL{Scheme: "http", Host: addr}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
		g.log.Warnf("proxy to %s (%s) failed: %v", service, addr, err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	err := g.breakers[service].Call(r.Context(), func() error {
		proxy.ServeHTTP(w, r)
		return nil
	})
	if err != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	log, err := logger.NewLogger(cfg.Log.Backend, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Fatalf("failed to connect to Consul: %v", err)
	}

	gw := &gateway{
		watchers: make(map[string]*discovery.Watcher),
		breakers: make(map[string]*middleware.CircuitBreaker),
		log:      log,
	}
	seen := make(map[string]bool)
	for _, svc := range routeTable {
		if seen[svc] {
			continue
		}
		seen[svc] = true
		gw.watchers[svc] = discovery.NewWatcher(consulClient, svc)
		gw.breakers[svc] = middleware.NewCircuitBreaker(svc, 5, 30*time.Second)
	}
	defer func() {
		for _, w := range gw.watchers {
			w.Close()
		}
	}()

	// 全局限流：令牌桶，容量 200，每秒补充 100
	limiter := middleware.NewTokenBucket(200, 100)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.LimitHandler(limiter, gw),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("api-gateway listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api-gateway exited with error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("api-gateway shutting down")
	_ = srv.Close()
}
