package booking

import (
	"fmt"
	"time"

	"github.com/FleetLinkRent/FleetLinkRent/internal/catalog"
)

// QuoteLine 报价明细行，金额单位：分。
type QuoteLine struct {
	AddOnID   string `json:"add_on_id,omitempty"`
	Label     string `json:"label"`
	DailyRate int64  `json:"daily_rate"`
	Days      int    `json:"days"`
	Subtotal  int64  `json:"subtotal"`
}

// Quote 一次预订的完整报价。
type Quote struct {
	Days     int         `json:"days"`
	Lines    []QuoteLine `json:"lines"`
	Total    int64       `json:"total"`
	Currency string      `json:"currency"`
}

// dateOnly 丢弃时分秒，统一到 UTC 零点。
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// rentalDays 闭区间按天计数：取车日和还车日都计费。
func rentalDays(start, end time.Time) int {
	s, e := dateOnly(start), dateOnly(end)
	return int(e.Sub(s).Hours()/24) + 1
}

// BuildQuote 按车型日费率和加购项生成报价。
// 每个加购项都要求在下单日期仍处于有效期内，过期返回 ErrAddOnExpired。
func BuildQuote(carType catalog.CarType, start, end time.Time, addOns []catalog.AddOn, bookedAt time.Time) (Quote, error) {
	days := rentalDays(start, end)
	if days < 1 {
		return Quote{}, ErrInvalidDuration
	}
	booked := dateOnly(bookedAt)

	q := Quote{Days: days, Currency: carType.Currency}
	base := carType.DailyRate * int64(days)
	q.Lines = append(q.Lines, QuoteLine{
		Label:     carType.Name,
		DailyRate: carType.DailyRate,
		Days:      days,
		Subtotal:  base,
	})
	q.Total = base

	for _, a := range addOns {
		if booked.Before(dateOnly(a.ValidFrom)) || booked.After(dateOnly(a.ValidUntil)) {
			return Quote{}, fmt.Errorf("add-on %s: %w", a.ID, ErrAddOnExpired)
		}
		sub := a.DailyRate * int64(days)
		q.Lines = append(q.Lines, QuoteLine{
			AddOnID:   a.ID,
			Label:     a.Name,
			DailyRate: a.DailyRate,
			Days:      days,
			Subtotal:  sub,
		})
		q.Total += sub
	}
	return q, nil
}

// FormatAmount 把分转成带两位小数的字符串，用于日志和通知。
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
