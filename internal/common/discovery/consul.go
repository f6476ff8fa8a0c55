package discovery

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/consul/api"
)

// ServiceRegistry Consul服务注册（HTTP 健康检查）
type ServiceRegistry struct {
	client    *api.Client
	serviceID string
	service   string
	address   string
	port      int
	tags      []string
	check     *api.AgentServiceCheck
}

// NewServiceRegistry 创建服务注册器
func NewServiceRegistry(client *api.Client, serviceID, service, address string, port int, tags []string) *ServiceRegistry {
	return &ServiceRegistry{
		client:    client,
		serviceID: serviceID,
		service:   service,
		address:   address,
		port:      port,
		tags:      tags,
		check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", address, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

// Register 注册服务
func (r *ServiceRegistry) Register() error {
	registration := &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    r.service,
		Tags:    r.tags,
		Address: r.address,
		Port:    r.port,
		Check:   r.check,
	}

	return r.client.Agent().ServiceRegister(registration)
}

// Deregister 注销服务
func (r *ServiceRegistry) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.serviceID)
}

// Watcher 监听某个服务的健康实例列表（api-gateway 反向代理使用）。
// 基于 Consul 的 blocking query（WaitIndex），变化时更新本地快照。
type Watcher struct {
	client    *api.Client
	service   string
	lastIndex uint64

	mu    sync.RWMutex
	addrs []string
	next  uint64 // round-robin 游标

	stop chan struct{}
	once sync.Once
}

// NewWatcher 创建并启动服务实例监听
func NewWatcher(client *api.Client, service string) *Watcher {
	w := &Watcher{
		client:  client,
		service: service,
		stop:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		if err := w.update(); err != nil {
			// Consul 暂时不可用时退避重试，保留上一次的实例快照
			select {
			case <-w.stop:
				return
			case <-time.After(3 * time.Second):
			}
		}
	}
}

func (w *Watcher) update() error {
	services, meta, err := w.client.Health().Service(w.service, "", true, &api.QueryOptions{
		WaitIndex: w.lastIndex,
		WaitTime:  30 * time.Second,
	})
	if err != nil {
		return err
	}
	w.lastIndex = meta.LastIndex

	addrs := make([]string, 0, len(services))
	for _, s := range services {
		addr := s.Service.Address
		if addr == "" {
			addr = s.Node.Address
		}
		addrs = append(addrs, fmt.Sprintf("%s:%d", addr, s.Service.Port))
	}

	w.mu.Lock()
	w.addrs = addrs
	w.mu.Unlock()
	return nil
}

// Addrs 返回当前健康实例地址快照
func (w *Watcher) Addrs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.addrs))
	copy(out, w.addrs)
	return out
}

// Pick 以 round-robin 方式选取一个实例地址
func (w *Watcher) Pick() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.addrs) == 0 {
		return "", false
	}
	i := atomic.AddUint64(&w.next, 1)
	return w.addrs[i%uint64(len(w.addrs))], true
}

// Close 停止监听
func (w *Watcher) Close() {
	w.once.Do(func() { close(w.stop) })
}

// NewConsulClient 创建Consul客户端
func NewConsulClient(host string, port int) (*api.Client, error) {
	config := api.DefaultConfig()
	config.Address = fmt.Sprintf("%s:%d", host, port)
	return api.NewClient(config)
}
