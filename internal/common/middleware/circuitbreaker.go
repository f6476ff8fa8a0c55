package middleware

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitBreakerState 熔断器状态
type CircuitBreakerState int

const (
	StateClosed   CircuitBreakerState = iota // 关闭（正常放行）
	StateOpen                                // 开启（直接拒绝）
	StateHalfOpen                            // 半开（放行少量请求试探恢复）
)

// ErrCircuitOpen 熔断中，调用被直接拒绝
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrHalfOpenLimit 半开状态放行名额已用完
var ErrHalfOpenLimit = errors.New("circuit breaker half-open limit reached")

// halfOpenQuota 半开状态下同时放行的最大请求数
const halfOpenQuota = 3

// CircuitBreaker 熔断器（gateway 转发上游、notify 推送事件时使用）。
// 连续失败 maxFailures 次后开启，resetTimeout 后进入半开试探恢复。
type CircuitBreaker struct {
	name           string
	maxFailures    int
	resetTimeout   time.Duration
	failCount      int // 连续失败计数，成功后清零
	halfOpenPassed int // 半开状态已放行的请求数
	state          CircuitBreakerState
	lastFailTime   time.Time
	mu             sync.RWMutex
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Call 在熔断保护下执行 fn，被拒绝时返回 ErrCircuitOpen / ErrHalfOpenLimit。
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	cb.mu.Lock()
	state := cb.state

	// 开启状态下到达重置时间则转半开
	if state == StateOpen {
		if time.Since(cb.lastFailTime) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.halfOpenPassed = 0
			state = StateHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	if state == StateHalfOpen {
		if cb.halfOpenPassed >= halfOpenQuota {
			cb.mu.Unlock()
			return ErrHalfOpenLimit
		}
		cb.halfOpenPassed++
	}

	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failCount++
		cb.lastFailTime = time.Now()

		if cb.state == StateHalfOpen {
			// 半开期间失败，重新熔断
			cb.state = StateOpen
			cb.halfOpenPassed = 0
		} else if cb.failCount >= cb.maxFailures {
			cb.state = StateOpen
		}
	} else {
		if cb.state == StateHalfOpen {
			cb.state = StateClosed
			cb.halfOpenPassed = 0
		}
		cb.failCount = 0
	}

	return err
}

// GetState 获取当前状态
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
