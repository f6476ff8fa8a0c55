package booking

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FleetLinkRent/FleetLinkRent/internal/catalog"
)

// GormStore 基于 MySQL 的预订存储实现。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) withCtx(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return s.db
	}
	return s.db.WithContext(ctx)
}

// Create 在事务内完成：行锁复核同车辆区间冲突 -> 写入预订 -> 更新车辆占用。
// 进程内键锁已挡掉同进程并发，这里的复核是跨进程兜底。
func (s *GormStore) Create(ctx context.Context, r *Reservation, occupancy catalog.Occupancy) error {
	return s.withCtx(ctx).Transaction(func(tx *gorm.DB) error {
		var active []Reservation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("vehicle_id = ? AND status IN ?", r.VehicleID, NonTerminalStatuses).
			Find(&active).Error
		if err != nil {
			return fmt.Errorf("lock active reservations: %w", err)
		}
		if conflict := findConflict(active, r.StartDate, r.EndDate, r.ID); conflict != nil {
			return &ConflictError{ConflictingID: conflict.ID}
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		return s.updateOccupancy(tx, r.VehicleID, occupancy)
	})
}

// Save 在事务内更新预订并同步车辆占用状态。
// 乐观写：WHERE 带上调用方观察到的状态，存量状态已被别的流转改走时
// 零行命中，返回 *TransitionError（Ark 式 UpdateStatus 守卫）。
func (s *GormStore) Save(ctx context.Context, r *Reservation, from Status, occupancy catalog.Occupancy) error {
	return s.withCtx(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Reservation{}).
			Where("id = ? AND status = ?", r.ID, from).
			Select("*").Omit("id", "created_at").
			Updates(r)
		if res.Error != nil {
			return fmt.Errorf("save reservation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var current Reservation
			if err := tx.Where("id = ?", r.ID).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrReservationNotFound
				}
				return fmt.Errorf("reload reservation: %w", err)
			}
			return &TransitionError{From: current.Status, To: r.Status}
		}
		return s.updateOccupancy(tx, r.VehicleID, occupancy)
	})
}

func (s *GormStore) updateOccupancy(tx *gorm.DB, vehicleID string, occ catalog.Occupancy) error {
	res := tx.Model(&catalog.Vehicle{}).Where("id = ?", vehicleID).Update("occupancy", occ)
	if res.Error != nil {
		return fmt.Errorf("update vehicle occupancy: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Reservation, error) {
	var r Reservation
	err := s.withCtx(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return &r, nil
}

func (s *GormStore) GetByConfirmation(ctx context.Context, code string) (*Reservation, error) {
	var r Reservation
	err := s.withCtx(ctx).Where("confirmation_number = ?", code).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query reservation by confirmation: %w", err)
	}
	return &r, nil
}

func (s *GormStore) ExistsConfirmation(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.withCtx(ctx).Model(&Reservation{}).
		Where("confirmation_number = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count confirmation numbers: %w", err)
	}
	return count > 0, nil
}

// ListActiveByVehicle 只取非终态预订，可用性检查的输入。
func (s *GormStore) ListActiveByVehicle(ctx context.Context, vehicleID string) ([]Reservation, error) {
	var list []Reservation
	err := s.withCtx(ctx).
		Where("vehicle_id = ? AND status IN ?", vehicleID, NonTerminalStatuses).
		Order("start_date").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("query active reservations: %w", err)
	}
	return list, nil
}

func (s *GormStore) ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]Reservation, int64, error) {
	q := s.withCtx(ctx).Model(&Reservation{}).Where("customer_id = ?", customerID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}
	var list []Reservation
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query reservations: %w", err)
	}
	return list, total, nil
}

func (s *GormStore) List(ctx context.Context, status Status, offset, limit int) ([]Reservation, int64, error) {
	q := s.withCtx(ctx).Model(&Reservation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}
	var list []Reservation
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query reservations: %w", err)
	}
	return list, total, nil
}

// CatalogStore 把 catalog.Repo 适配成本包的 Catalog 接口，
// 并把 gorm 的未命中错误翻译成本包的 NotFound 哨兵错误。
type CatalogStore struct {
	repo *catalog.Repo
}

func NewCatalogStore(repo *catalog.Repo) *CatalogStore {
	return &CatalogStore{repo: repo}
}

func (c *CatalogStore) GetVehicle(ctx context.Context, id string) (*catalog.Vehicle, error) {
	v, err := c.repo.GetVehicle(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVehicleNotFound
	}
	return v, err
}

func (c *CatalogStore) GetCarType(ctx context.Context, id string) (*catalog.CarType, error) {
	ct, err := c.repo.GetCarType(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCarTypeNotFound
	}
	return ct, err
}

func (c *CatalogStore) GetHub(ctx context.Context, id string) (*catalog.Hub, error) {
	h, err := c.repo.GetHub(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHubNotFound
	}
	return h, err
}

func (c *CatalogStore) GetAddOn(ctx context.Context, id string) (*catalog.AddOn, error) {
	a, err := c.repo.GetAddOn(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAddOnNotFound
	}
	return a, err
}
