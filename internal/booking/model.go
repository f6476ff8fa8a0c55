package booking

import (
	"strings"
	"time"
)

// Status 预订生命周期状态枚举（持久化为字符串）。
type Status string

const (
	StatusRequested  Status = "requested"   // 草稿态（预留给支付/审批流程，当前创建直接到 confirmed）
	StatusConfirmed  Status = "confirmed"   // 已确认，占用车辆区间
	StatusCheckedOut Status = "checked_out" // 已交车
	StatusReturned   Status = "returned"    // 已还车（终态）
	StatusCancelled  Status = "cancelled"   // 已取消（终态）
)

// Terminal 终态不再占用车辆，也不允许任何流转。
func (s Status) Terminal() bool {
	return s == StatusReturned || s == StatusCancelled
}

// NonTerminalStatuses 占用车辆可用性的状态集合。
var NonTerminalStatuses = []Status{StatusRequested, StatusConfirmed, StatusCheckedOut}

// FuelStatus 油量档位，取值与纸质交接单一致。
type FuelStatus string

const (
	FuelQuarter       FuelStatus = "1/4"
	FuelHalf          FuelStatus = "1/2"
	FuelThreeQuarters FuelStatus = "3/4"
	FuelFull          FuelStatus = "Full"
)

// ValidFuelStatus 校验油量档位取值。
func ValidFuelStatus(s string) bool {
	switch FuelStatus(s) {
	case FuelQuarter, FuelHalf, FuelThreeQuarters, FuelFull:
		return true
	}
	return false
}

// Reservation 预订 GORM 模型。
// 记录一旦创建永不删除：取消是终态，不是物理删除。
// 价格在确认时按当时费率锁定，之后的费率调整不回溯。
type Reservation struct {
	ID                 string `gorm:"primaryKey;size:36"`
	ConfirmationNumber string `gorm:"uniqueIndex;size:16;not null"` // 对外展示的唯一确认号

	// 业务关联
	CustomerID  string `gorm:"index;size:36;not null"`
	VehicleID   string `gorm:"index;size:36;not null"`
	PickupHubID string `gorm:"size:36;not null"`
	ReturnHubID string `gorm:"size:36;not null"`

	// 预订区间（闭区间，按天）
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`

	// 加购与金额（单位：分；确认时锁定）
	AddOnIDs   string `gorm:"size:512"` // 逗号分隔
	TotalPrice int64  `gorm:"not null;default:0"`
	Currency   string `gorm:"size:8;not null;default:'USD'"`

	Status Status `gorm:"type:varchar(16);index;not null"`

	// 交接记录
	FuelAtHandover FuelStatus `gorm:"size:8"`
	FuelAtReturn   FuelStatus `gorm:"size:8"`
	HandoverNotes  string     `gorm:"size:512"`
	ReturnNotes    string     `gorm:"size:512"`
	ActualReturn   *time.Time `gorm:"type:date"` // 实际还车日期

	// 时间信息
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	ConfirmedAt  *time.Time
	CheckedOutAt *time.Time
	ReturnedAt   *time.Time
	CancelledAt  *time.Time
}

// AddOnSlice 把逗号分隔的加购 ID 拆成 slice。
func (r Reservation) AddOnSlice() []string {
	if strings.TrimSpace(r.AddOnIDs) == "" {
		return nil
	}
	parts := strings.Split(r.AddOnIDs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AddOnJoin 把加购 ID slice 拼成存储格式。
func AddOnJoin(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return strings.Join(out, ",")
}
