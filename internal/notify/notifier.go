// Package notify 把预订生命周期事件写入 Redis Stream，
// 供下游（短信/邮件/运营看板）消费。写入失败只记日志，不阻塞主流程。
package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FleetLinkRent/FleetLinkRent/internal/booking"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/middleware"
)

const (
	eventReservationConfirmed = "reservation.confirmed"
	eventReservationCancelled = "reservation.cancelled"
	eventReservationModified  = "reservation.modified"
	eventVehicleCheckedOut    = "vehicle.checked_out"
	eventVehicleReturned      = "vehicle.returned"

	publishTimeout = 2 * time.Second
	streamMaxLen   = 100_000
)

// RedisNotifier 通过 XADD 投递事件。Redis 不稳时由熔断器快速失败。
type RedisNotifier struct {
	rdb    *redis.Client
	stream string
	cb     *middleware.CircuitBreaker
	log    logger.Logger
}

func NewRedisNotifier(rdb *redis.Client, stream string, log logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb:    rdb,
		stream: stream,
		cb:     middleware.NewCircuitBreaker("notify-redis", 5, 30*time.Second),
		log:    log,
	}
}

func (n *RedisNotifier) ReservationConfirmed(ctx context.Context, r *booking.Reservation) {
	n.publish(ctx, eventReservationConfirmed, r)
}

func (n *RedisNotifier) ReservationCancelled(ctx context.Context, r *booking.Reservation) {
	n.publish(ctx, eventReservationCancelled, r)
}

func (n *RedisNotifier) ReservationModified(ctx context.Context, r *booking.Reservation) {
	n.publish(ctx, eventReservationModified, r)
}

func (n *RedisNotifier) VehicleCheckedOut(ctx context.Context, r *booking.Reservation) {
	n.publish(ctx, eventVehicleCheckedOut, r)
}

func (n *RedisNotifier) VehicleReturned(ctx context.Context, r *booking.Reservation) {
	n.publish(ctx, eventVehicleReturned, r)
}

func (n *RedisNotifier) publish(ctx context.Context, event string, r *booking.Reservation) {
	// 与请求生命周期解耦：请求取消不应吞掉已发生的业务事件。
	pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	values := map[string]interface{}{
		"event":               event,
		"reservation_id":      r.ID,
		"confirmation_number": r.ConfirmationNumber,
		"customer_id":         r.CustomerID,
		"vehicle_id":          r.VehicleID,
		"status":              string(r.Status),
		"start_date":          r.StartDate.Format("2006-01-02"),
		"end_date":            r.EndDate.Format("2006-01-02"),
		"total_price":         r.TotalPrice,
		"currency":            r.Currency,
		"at":                  time.Now().UTC().Format(time.RFC3339),
	}

	err := n.cb.Call(pubCtx, func() error {
		return n.rdb.XAdd(pubCtx, &redis.XAddArgs{
			Stream: n.stream,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: values,
		}).Err()
	})
	if err != nil {
		n.log.Warnf("publish %s event failed: reservation=%s err=%v", event, r.ID, err)
	}
}

// Nop 空实现，测试和本地脱机环境使用。
type Nop struct{}

func (Nop) ReservationConfirmed(context.Context, *booking.Reservation) {}
func (Nop) ReservationCancelled(context.Context, *booking.Reservation) {}
func (Nop) ReservationModified(context.Context, *booking.Reservation)  {}
func (Nop) VehicleCheckedOut(context.Context, *booking.Reservation)    {}
func (Nop) VehicleReturned(context.Context, *booking.Reservation)      {}
