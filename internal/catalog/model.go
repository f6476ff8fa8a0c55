package catalog

import "time"

// Occupancy 车辆占用状态枚举（持久化为字符串）。
type Occupancy string

const (
	OccupancyAvailable   Occupancy = "available"   // 空闲，可被预订
	OccupancyReserved    Occupancy = "reserved"    // 当前被某个生效预订占用
	OccupancyCheckedOut  Occupancy = "checked_out" // 已交车，客户使用中
	OccupancyMaintenance Occupancy = "maintenance" // 维保中，不参与预订（由运营手工设置）
)

// CarType 车型主数据（日租金按“分”存储）。
type CarType struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"uniqueIndex;size:64;not null"`
	DailyRate int64     `gorm:"not null;default:0"` // 日租金（单位：分）
	Currency  string    `gorm:"size:8;not null;default:'USD'"`
	Seats     int       `gorm:"not null;default:5"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Hub 取还车门店。
type Hub struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"uniqueIndex;size:64;not null"`
	City      string    `gorm:"index;size:64"`
	Address   string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Vehicle 是 vehicles 表的 GORM 模型。
// 占用状态只允许预订引擎（booking 包）和维保开关写入。
type Vehicle struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PlateNumber string    `gorm:"uniqueIndex;size:32;not null"`
	VIN         string    `gorm:"size:64"`
	CarTypeID   string    `gorm:"index;size:36;not null"`
	HubID       string    `gorm:"index;size:36;not null"` // 车辆当前所在门店
	Occupancy   Occupancy `gorm:"type:varchar(16);index;not null;default:'available'"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// AddOn 附加服务主数据。
// 日租金与有效期一起构成费率：预订时间必须落在有效期内才可加购，
// 价格在预订确认时锁定，之后修改费率不影响已有预订。
type AddOn struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Name       string    `gorm:"uniqueIndex;size:64;not null"`
	DailyRate  int64     `gorm:"not null;default:0"` // 日租金（单位：分）
	ValidFrom  time.Time `gorm:"type:date;not null"`
	ValidUntil time.Time `gorm:"type:date;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}
