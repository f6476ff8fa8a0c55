package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FleetLinkRent/FleetLinkRent/internal/catalog"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
)

// Store 预订存储接口。
// Create 必须在同一事务里做区间复核（跨进程兜底），冲突时返回 *ConflictError。
// Save 是乐观写：只有存量状态仍等于 from 时才落库，否则返回 *TransitionError，
// 这样跨进程的并发流转也只有一个能赢。
type Store interface {
	Create(ctx context.Context, r *Reservation, occupancy catalog.Occupancy) error
	Save(ctx context.Context, r *Reservation, from Status, occupancy catalog.Occupancy) error
	Get(ctx context.Context, id string) (*Reservation, error)
	GetByConfirmation(ctx context.Context, code string) (*Reservation, error)
	ExistsConfirmation(ctx context.Context, code string) (bool, error)
	ListActiveByVehicle(ctx context.Context, vehicleID string) ([]Reservation, error)
	ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]Reservation, int64, error)
	List(ctx context.Context, status Status, offset, limit int) ([]Reservation, int64, error)
}

// Catalog 主数据查询接口，找不到时返回本包的 NotFound 哨兵错误。
type Catalog interface {
	GetVehicle(ctx context.Context, id string) (*catalog.Vehicle, error)
	GetCarType(ctx context.Context, id string) (*catalog.CarType, error)
	GetHub(ctx context.Context, id string) (*catalog.Hub, error)
	GetAddOn(ctx context.Context, id string) (*catalog.AddOn, error)
}

// Notifier 预订事件通知接口。通知失败只记日志，不影响主流程。
type Notifier interface {
	ReservationConfirmed(ctx context.Context, r *Reservation)
	ReservationCancelled(ctx context.Context, r *Reservation)
	ReservationModified(ctx context.Context, r *Reservation)
	VehicleCheckedOut(ctx context.Context, r *Reservation)
	VehicleReturned(ctx context.Context, r *Reservation)
}

// Clock 可注入时钟，测试用。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

const (
	maxConfirmationAttempts = 5
	maxRentalDays           = 90
)

// Service 预订引擎：可用性检查、报价、确认号、生命周期流转、交接记录。
type Service struct {
	store    Store
	catalog  Catalog
	notifier Notifier
	locks    *keyedMutex
	clock    Clock
	log      logger.Logger
}

func NewService(store Store, cat Catalog, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  cat,
		notifier: notifier,
		locks:    newKeyedMutex(),
		clock:    realClock{},
		log:      log,
	}
}

// WithClock 替换时钟，仅测试使用。
func (s *Service) WithClock(c Clock) *Service {
	s.clock = c
	return s
}

// CreateRequest 创建预订入参（日期已解析到天）。
type CreateRequest struct {
	CustomerID  string
	VehicleID   string
	PickupHubID string
	ReturnHubID string
	StartDate   time.Time
	EndDate     time.Time
	AddOnIDs    []string
}

// CreateReservation 创建并确认一个预订。
// 同一车辆的检查与写入在进程内串行化，存储层事务做跨进程复核。
func (s *Service) CreateReservation(ctx context.Context, req CreateRequest) (*Reservation, *Quote, error) {
	if req.CustomerID == "" || req.VehicleID == "" || req.PickupHubID == "" || req.ReturnHubID == "" {
		return nil, nil, ErrInvalidInput
	}
	start, end := dateOnly(req.StartDate), dateOnly(req.EndDate)
	if err := s.validateRange(start, end); err != nil {
		return nil, nil, err
	}

	vehicle, err := s.catalog.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, nil, err
	}
	if vehicle.Occupancy == catalog.OccupancyMaintenance {
		return nil, nil, ErrVehicleUnavailable
	}
	if _, err = s.catalog.GetHub(ctx, req.PickupHubID); err != nil {
		return nil, nil, err
	}
	if _, err = s.catalog.GetHub(ctx, req.ReturnHubID); err != nil {
		return nil, nil, err
	}
	carType, err := s.catalog.GetCarType(ctx, vehicle.CarTypeID)
	if err != nil {
		return nil, nil, err
	}
	addOns := make([]catalog.AddOn, 0, len(req.AddOnIDs))
	for _, id := range req.AddOnIDs {
		a, err := s.catalog.GetAddOn(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		addOns = append(addOns, *a)
	}

	now := s.clock.Now()
	quote, err := BuildQuote(*carType, start, end, addOns, now)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(vehicle.ID)
	defer unlock()

	active, err := s.store.ListActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		return nil, nil, err
	}
	if conflict := findConflict(active, start, end, ""); conflict != nil {
		return nil, nil, &ConflictError{ConflictingID: conflict.ID}
	}

	code, err := s.uniqueConfirmationNumber(ctx)
	if err != nil {
		return nil, nil, err
	}

	r := &Reservation{
		ID:                 uuid.NewString(),
		ConfirmationNumber: code,
		CustomerID:         req.CustomerID,
		VehicleID:          vehicle.ID,
		PickupHubID:        req.PickupHubID,
		ReturnHubID:        req.ReturnHubID,
		StartDate:          start,
		EndDate:            end,
		AddOnIDs:           AddOnJoin(req.AddOnIDs),
		TotalPrice:         quote.Total,
		Currency:           quote.Currency,
		Status:             StatusConfirmed,
		ConfirmedAt:        &now,
	}

	active = append(active, *r)
	occ := deriveOccupancy(vehicle.Occupancy, active, now)
	if err := s.store.Create(ctx, r, occ); err != nil {
		return nil, nil, err
	}

	s.log.Infof("reservation confirmed: id=%s code=%s vehicle=%s total=%s %s",
		r.ID, r.ConfirmationNumber, r.VehicleID, FormatAmount(r.TotalPrice), r.Currency)
	s.notifier.ReservationConfirmed(ctx, r)
	return r, &quote, nil
}

// lockAndGet 先锁住预订所属车辆，再在锁内重读预订。
// 锁外读到的快照只用来确定锁键（预订与车辆的绑定不可变），
// 状态判断必须基于锁内的重读结果。
func (s *Service) lockAndGet(ctx context.Context, id string) (*Reservation, func(), error) {
	keyed, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	unlock := s.locks.Lock(keyed.VehicleID)
	r, err := s.store.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return r, unlock, nil
}

// CancelReservation 取消预订，仅允许 requested/confirmed 状态。
func (s *Service) CancelReservation(ctx context.Context, id string) (*Reservation, error) {
	r, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	from := r.Status
	now := s.clock.Now()
	if err := ApplyTransition(r, StatusCancelled, now); err != nil {
		return nil, err
	}

	occ, err := s.occupancyAfterWrite(ctx, r, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, r, from, occ); err != nil {
		return nil, err
	}

	s.log.Infof("reservation cancelled: id=%s code=%s", r.ID, r.ConfirmationNumber)
	s.notifier.ReservationCancelled(ctx, r)
	return r, nil
}

// ModifyRequest 修改预订入参；nil 字段表示不变。
type ModifyRequest struct {
	StartDate *time.Time
	EndDate   *time.Time
	AddOnIDs  []string // nil 表示不变，空 slice 表示清空
}

// ModifyReservation 修改尚未交车的预订：重新检查可用性（排除自身）并重新报价。
// 价格按修改时刻的费率重算，确认号保持不变。
func (s *Service) ModifyReservation(ctx context.Context, id string, req ModifyRequest) (*Reservation, *Quote, error) {
	r, unlock, err := s.lockAndGet(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	if r.Status != StatusConfirmed {
		return nil, nil, &TransitionError{From: r.Status, To: StatusConfirmed}
	}

	start, end := r.StartDate, r.EndDate
	if req.StartDate != nil {
		start = dateOnly(*req.StartDate)
	}
	if req.EndDate != nil {
		end = dateOnly(*req.EndDate)
	}
	if err := s.validateRange(start, end); err != nil {
		return nil, nil, err
	}

	addOnIDs := r.AddOnSlice()
	if req.AddOnIDs != nil {
		addOnIDs = req.AddOnIDs
	}

	vehicle, err := s.catalog.GetVehicle(ctx, r.VehicleID)
	if err != nil {
		return nil, nil, err
	}
	carType, err := s.catalog.GetCarType(ctx, vehicle.CarTypeID)
	if err != nil {
		return nil, nil, err
	}
	addOns := make([]catalog.AddOn, 0, len(addOnIDs))
	for _, aid := range addOnIDs {
		a, err := s.catalog.GetAddOn(ctx, aid)
		if err != nil {
			return nil, nil, err
		}
		addOns = append(addOns, *a)
	}

	now := s.clock.Now()
	quote, err := BuildQuote(*carType, start, end, addOns, now)
	if err != nil {
		return nil, nil, err
	}

	active, err := s.store.ListActiveByVehicle(ctx, r.VehicleID)
	if err != nil {
		return nil, nil, err
	}
	if conflict := findConflict(active, start, end, r.ID); conflict != nil {
		return nil, nil, &ConflictError{ConflictingID: conflict.ID}
	}

	r.StartDate = start
	r.EndDate = end
	r.AddOnIDs = AddOnJoin(addOnIDs)
	r.TotalPrice = quote.Total
	r.Currency = quote.Currency

	occ, err := s.occupancyAfterWrite(ctx, r, now)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.Save(ctx, r, StatusConfirmed, occ); err != nil {
		return nil, nil, err
	}

	s.log.Infof("reservation modified: id=%s code=%s total=%s %s",
		r.ID, r.ConfirmationNumber, FormatAmount(r.TotalPrice), r.Currency)
	s.notifier.ReservationModified(ctx, r)
	return r, &quote, nil
}

// HandoverRequest 交车记录入参。
type HandoverRequest struct {
	ReservationID string
	FuelStatus    string
	Notes         string
}

// RecordHandover 记录交车：油量 + 备注，状态流转到 checked_out。
func (s *Service) RecordHandover(ctx context.Context, req HandoverRequest) (*Reservation, error) {
	if !ValidFuelStatus(req.FuelStatus) {
		return nil, ErrInvalidFuelStatus
	}
	r, unlock, err := s.lockAndGet(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	from := r.Status
	now := s.clock.Now()
	if err := ApplyTransition(r, StatusCheckedOut, now); err != nil {
		return nil, err
	}
	r.FuelAtHandover = FuelStatus(req.FuelStatus)
	r.HandoverNotes = req.Notes

	occ, err := s.occupancyAfterWrite(ctx, r, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, r, from, occ); err != nil {
		return nil, err
	}

	s.log.Infof("vehicle checked out: reservation=%s vehicle=%s fuel=%s",
		r.ID, r.VehicleID, r.FuelAtHandover)
	s.notifier.VehicleCheckedOut(ctx, r)
	return r, nil
}

// ReturnRequest 还车记录入参。
type ReturnRequest struct {
	ReservationID string
	FuelStatus    string
	Notes         string
	ReturnDate    time.Time
}

// RecordReturn 记录还车：还车日期不得早于交车日期，状态流转到 returned。
func (s *Service) RecordReturn(ctx context.Context, req ReturnRequest) (*Reservation, error) {
	if !ValidFuelStatus(req.FuelStatus) {
		return nil, ErrInvalidFuelStatus
	}
	r, unlock, err := s.lockAndGet(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	returnDate := dateOnly(req.ReturnDate)
	if r.CheckedOutAt != nil && returnDate.Before(dateOnly(*r.CheckedOutAt)) {
		return nil, ErrInvalidReturnDate
	}

	from := r.Status
	now := s.clock.Now()
	if err := ApplyTransition(r, StatusReturned, now); err != nil {
		return nil, err
	}
	r.FuelAtReturn = FuelStatus(req.FuelStatus)
	r.ReturnNotes = req.Notes
	r.ActualReturn = &returnDate

	occ, err := s.occupancyAfterWrite(ctx, r, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, r, from, occ); err != nil {
		return nil, err
	}

	s.log.Infof("vehicle returned: reservation=%s vehicle=%s fuel=%s date=%s",
		r.ID, r.VehicleID, r.FuelAtReturn, returnDate.Format("2006-01-02"))
	s.notifier.VehicleReturned(ctx, r)
	return r, nil
}

// CheckAvailability 查询车辆在指定区间是否可被预订。
func (s *Service) CheckAvailability(ctx context.Context, vehicleID string, start, end time.Time) (*Availability, error) {
	start, end = dateOnly(start), dateOnly(end)
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}
	vehicle, err := s.catalog.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Occupancy == catalog.OccupancyMaintenance {
		return &Availability{Free: false}, nil
	}
	active, err := s.store.ListActiveByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if conflict := findConflict(active, start, end, ""); conflict != nil {
		return &Availability{Free: false, ConflictingReservationID: conflict.ID}, nil
	}
	return &Availability{Free: true}, nil
}

// GetReservation 按 ID 查询预订。
func (s *Service) GetReservation(ctx context.Context, id string) (*Reservation, error) {
	return s.store.Get(ctx, id)
}

// GetByConfirmation 按确认号查询预订。
func (s *Service) GetByConfirmation(ctx context.Context, code string) (*Reservation, error) {
	return s.store.GetByConfirmation(ctx, code)
}

// ListByCustomer 查询客户的全部预订。
func (s *Service) ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]Reservation, int64, error) {
	return s.store.ListByCustomer(ctx, customerID, offset, limit)
}

// List 按状态分页查询预订，status 为空表示全部。
func (s *Service) List(ctx context.Context, status Status, offset, limit int) ([]Reservation, int64, error) {
	return s.store.List(ctx, status, offset, limit)
}

func (s *Service) validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrInvalidRange
	}
	if end.Before(start) {
		return ErrInvalidRange
	}
	if rentalDays(start, end) > maxRentalDays {
		return ErrInvalidDuration
	}
	return nil
}

// uniqueConfirmationNumber 生成确认号并对存储层查重，冲突则重试。
func (s *Service) uniqueConfirmationNumber(ctx context.Context) (string, error) {
	for i := 0; i < maxConfirmationAttempts; i++ {
		code, err := newConfirmationNumber()
		if err != nil {
			return "", err
		}
		exists, err := s.store.ExistsConfirmation(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		s.log.Warnf("confirmation number collision, retrying: %s", code)
	}
	return "", ErrConfirmationGeneration
}

// occupancyAfterWrite 重新拉取车辆的生效预订，推导写入后的占用状态。
// 调用方必须已持有该车辆的键锁。
func (s *Service) occupancyAfterWrite(ctx context.Context, r *Reservation, now time.Time) (catalog.Occupancy, error) {
	vehicle, err := s.catalog.GetVehicle(ctx, r.VehicleID)
	if err != nil {
		return "", err
	}
	active, err := s.store.ListActiveByVehicle(ctx, r.VehicleID)
	if err != nil {
		return "", err
	}
	// 刚做的修改还没落库，用内存里的版本覆盖同 ID 记录。
	replaced := false
	for i := range active {
		if active[i].ID == r.ID {
			active[i] = *r
			replaced = true
			break
		}
	}
	if !replaced && !r.Status.Terminal() {
		active = append(active, *r)
	}
	return deriveOccupancy(vehicle.Occupancy, active, now), nil
}

// deriveOccupancy 由生效预订推导车辆占用状态。
// 维保为粘性状态，只能由运营手工解除；其次看是否有已交车的预订，
// 再看是否有覆盖今天的已确认预订，否则空闲。
func deriveOccupancy(current catalog.Occupancy, active []Reservation, now time.Time) catalog.Occupancy {
	if current == catalog.OccupancyMaintenance {
		return catalog.OccupancyMaintenance
	}
	today := dateOnly(now)
	occ := catalog.OccupancyAvailable
	for i := range active {
		r := &active[i]
		if r.Status.Terminal() {
			continue
		}
		if r.Status == StatusCheckedOut {
			return catalog.OccupancyCheckedOut
		}
		if r.Status == StatusConfirmed && overlap(r.StartDate, r.EndDate, today, today) {
			occ = catalog.OccupancyReserved
		}
	}
	return occ
}

// DeriveOccupancy 根据车辆的非终态预订重推占用状态。
// 维保解除走这里，而不是直接写 available：车上可能还有在途预订。
func (s *Service) DeriveOccupancy(ctx context.Context, vehicleID string) (catalog.Occupancy, error) {
	unlock := s.locks.Lock(vehicleID)
	defer unlock()

	active, err := s.store.ListActiveByVehicle(ctx, vehicleID)
	if err != nil {
		return "", err
	}
	return deriveOccupancy(catalog.OccupancyAvailable, active, s.clock.Now()), nil
}

// IsNotFound 判断是否为 NotFound 类业务错误，HTTP 层映射 404 用。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVehicleNotFound) ||
		errors.Is(err, ErrCarTypeNotFound) ||
		errors.Is(err, ErrHubNotFound) ||
		errors.Is(err, ErrAddOnNotFound) ||
		errors.Is(err, ErrReservationNotFound)
}
