package config

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/consul/api"
)

// kvPrefix 各服务配置在 Consul KV 里的统一前缀。
const kvPrefix = "fleetlinkrent/config/"

// DefaultKVKey 返回服务配置的标准 KV 键，
// 例如 booking-service 对应 fleetlinkrent/config/booking-service。
func DefaultKVKey(serviceName string) string {
	return kvPrefix + serviceName
}

// LoadConfigFromConsulKV 从 Consul KV 一次性拉取 JSON 配置。
// 值必须与 Config 同构；动态 watch 不在这里做，由调用方决定是否重启加载。
func LoadConfigFromConsulKV(consulHost string, consulPort int, key string) (*Config, error) {
	if key == "" {
		return nil, fmt.Errorf("consul kv key is empty")
	}

	client, err := api.NewClient(&api.Config{
		Address: fmt.Sprintf("%s:%d", consulHost, consulPort),
	})
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	pair, _, err := client.KV().Get(key, nil)
	if err != nil {
		return nil, fmt.Errorf("read consul kv %s: %w", key, err)
	}
	if pair == nil || len(pair.Value) == 0 {
		return nil, fmt.Errorf("consul kv %s is empty or missing", key)
	}

	cfg := &Config{}
	if err := json.Unmarshal(pair.Value, cfg); err != nil {
		return nil, fmt.Errorf("parse consul kv %s: %w", key, err)
	}
	return cfg, nil
}
