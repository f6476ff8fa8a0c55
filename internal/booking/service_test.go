package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FleetLinkRent/FleetLinkRent/internal/catalog"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
)

// ---- 测试替身 ----

type nopLogger struct{}

func (nopLogger) Debug(args ...interface{})                        {}
func (nopLogger) Debugf(format string, args ...interface{})        {}
func (nopLogger) Info(args ...interface{})                         {}
func (nopLogger) Infof(format string, args ...interface{})         {}
func (nopLogger) Warn(args ...interface{})                         {}
func (nopLogger) Warnf(format string, args ...interface{})         {}
func (nopLogger) Error(args ...interface{})                        {}
func (nopLogger) Errorf(format string, args ...interface{})        {}
func (nopLogger) Fatal(args ...interface{})                        {}
func (nopLogger) Fatalf(format string, args ...interface{})        {}
func (l nopLogger) WithFields(map[string]interface{}) logger.Logger { return l }
func (l nopLogger) WithField(string, interface{}) logger.Logger     { return l }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// memStore 内存版 Store，语义与 GormStore 对齐（含事务内冲突复核）。
type memStore struct {
	mu        sync.Mutex
	byID      map[string]Reservation
	occupancy map[string]catalog.Occupancy
}

func newMemStore() *memStore {
	return &memStore{
		byID:      make(map[string]Reservation),
		occupancy: make(map[string]catalog.Occupancy),
	}
}

func (s *memStore) Create(_ context.Context, r *Reservation, occ catalog.Occupancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.activeByVehicleLocked(r.VehicleID)
	if conflict := findConflict(active, r.StartDate, r.EndDate, r.ID); conflict != nil {
		return &ConflictError{ConflictingID: conflict.ID}
	}
	s.byID[r.ID] = *r
	s.occupancy[r.VehicleID] = occ
	return nil
}

func (s *memStore) Save(_ context.Context, r *Reservation, from Status, occ catalog.Occupancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[r.ID]
	if !ok {
		return ErrReservationNotFound
	}
	// 乐观写语义与 GormStore 对齐
	if cur.Status != from {
		return &TransitionError{From: cur.Status, To: r.Status}
	}
	s.byID[r.ID] = *r
	s.occupancy[r.VehicleID] = occ
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return &r, nil
}

func (s *memStore) GetByConfirmation(_ context.Context, code string) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byID {
		if r.ConfirmationNumber == code {
			out := r
			return &out, nil
		}
	}
	return nil, ErrReservationNotFound
}

func (s *memStore) ExistsConfirmation(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byID {
		if r.ConfirmationNumber == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListActiveByVehicle(_ context.Context, vehicleID string) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeByVehicleLocked(vehicleID), nil
}

func (s *memStore) activeByVehicleLocked(vehicleID string) []Reservation {
	var out []Reservation
	for _, r := range s.byID {
		if r.VehicleID == vehicleID && !r.Status.Terminal() {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) ListByCustomer(_ context.Context, customerID string, offset, limit int) ([]Reservation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Reservation
	for _, r := range s.byID {
		if r.CustomerID == customerID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) List(_ context.Context, status Status, offset, limit int) ([]Reservation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Reservation
	for _, r := range s.byID {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) vehicleOccupancy(vehicleID string) catalog.Occupancy {
	s.mu.Lock()
	defer s.mu.Unlock()
	occ, ok := s.occupancy[vehicleID]
	if !ok {
		return catalog.OccupancyAvailable
	}
	return occ
}

// memCatalog 内存版主数据。
type memCatalog struct {
	mu       sync.Mutex
	vehicles map[string]catalog.Vehicle
	carTypes map[string]catalog.CarType
	hubs     map[string]catalog.Hub
	addOns   map[string]catalog.AddOn
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		vehicles: make(map[string]catalog.Vehicle),
		carTypes: make(map[string]catalog.CarType),
		hubs:     make(map[string]catalog.Hub),
		addOns:   make(map[string]catalog.AddOn),
	}
}

func (c *memCatalog) GetVehicle(_ context.Context, id string) (*catalog.Vehicle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vehicles[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	return &v, nil
}

func (c *memCatalog) GetCarType(_ context.Context, id string) (*catalog.CarType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ct, ok := c.carTypes[id]
	if !ok {
		return nil, ErrCarTypeNotFound
	}
	return &ct, nil
}

func (c *memCatalog) GetHub(_ context.Context, id string) (*catalog.Hub, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hubs[id]
	if !ok {
		return nil, ErrHubNotFound
	}
	return &h, nil
}

func (c *memCatalog) GetAddOn(_ context.Context, id string) (*catalog.AddOn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.addOns[id]
	if !ok {
		return nil, ErrAddOnNotFound
	}
	return &a, nil
}

func (c *memCatalog) setOccupancy(id string, occ catalog.Occupancy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.vehicles[id]
	v.Occupancy = occ
	c.vehicles[id] = v
}

// recordNotifier 记录收到的事件名。
type recordNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordNotifier) record(event string) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return ""
	}
	return n.events[len(n.events)-1]
}

func (n *recordNotifier) ReservationConfirmed(context.Context, *Reservation) { n.record("confirmed") }
func (n *recordNotifier) ReservationCancelled(context.Context, *Reservation) { n.record("cancelled") }
func (n *recordNotifier) ReservationModified(context.Context, *Reservation)  { n.record("modified") }
func (n *recordNotifier) VehicleCheckedOut(context.Context, *Reservation)    { n.record("checked_out") }
func (n *recordNotifier) VehicleReturned(context.Context, *Reservation)      { n.record("returned") }

// newTestService 组装一套带固定主数据的测试服务。
func newTestService(t *testing.T) (*Service, *memStore, *memCatalog, *recordNotifier, *fakeClock) {
	t.Helper()
	store := newMemStore()
	cat := newMemCatalog()
	notifier := &recordNotifier{}
	clock := &fakeClock{now: day(2024, 5, 20)}

	cat.carTypes["ct-compact"] = catalog.CarType{
		ID: "ct-compact", Name: "Compact", DailyRate: 5000, Currency: "USD", Seats: 5,
	}
	cat.hubs["hub-1"] = catalog.Hub{ID: "hub-1", Name: "Downtown"}
	cat.hubs["hub-2"] = catalog.Hub{ID: "hub-2", Name: "Airport"}
	cat.vehicles["veh-1"] = catalog.Vehicle{
		ID: "veh-1", PlateNumber: "ABC-123", CarTypeID: "ct-compact",
		HubID: "hub-1", Occupancy: catalog.OccupancyAvailable,
	}
	cat.addOns["gps"] = catalog.AddOn{
		ID: "gps", Name: "GPS", DailyRate: 500,
		ValidFrom: day(2024, 1, 1), ValidUntil: day(2024, 12, 31),
	}
	cat.addOns["old-promo"] = catalog.AddOn{
		ID: "old-promo", Name: "Winter Promo", DailyRate: 100,
		ValidFrom: day(2024, 1, 1), ValidUntil: day(2024, 3, 31),
	}

	svc := NewService(store, cat, notifier, nopLogger{}).WithClock(clock)
	return svc, store, cat, notifier, clock
}

func defaultCreateReq() CreateRequest {
	return CreateRequest{
		CustomerID:  "cust-1",
		VehicleID:   "veh-1",
		PickupHubID: "hub-1",
		ReturnHubID: "hub-2",
		StartDate:   day(2024, 6, 1),
		EndDate:     day(2024, 6, 3),
	}
}

// ---- 用例 ----

func TestCreateReservation(t *testing.T) {
	svc, store, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	r, quote, err := svc.CreateReservation(ctx, defaultCreateReq())
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if r.Status != StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", r.Status)
	}
	if r.ConfirmedAt == nil {
		t.Fatalf("ConfirmedAt not set")
	}
	if !strings.HasPrefix(r.ConfirmationNumber, "RNT") || len(r.ConfirmationNumber) != 10 {
		t.Fatalf("unexpected confirmation number: %s", r.ConfirmationNumber)
	}
	if quote.Total != 15000 || r.TotalPrice != 15000 {
		t.Fatalf("total = %d/%d, want 15000", quote.Total, r.TotalPrice)
	}
	// 预订不覆盖今天（5-20），车辆仍然空闲
	if occ := store.vehicleOccupancy("veh-1"); occ != catalog.OccupancyAvailable {
		t.Fatalf("occupancy = %s, want available", occ)
	}
	if notifier.last() != "confirmed" {
		t.Fatalf("expected confirmed event, got %q", notifier.last())
	}

	got, err := svc.GetByConfirmation(ctx, r.ConfirmationNumber)
	if err != nil {
		t.Fatalf("GetByConfirmation: %v", err)
	}
	if got.ID != r.ID {
		t.Fatalf("lookup returned wrong reservation")
	}
}

func TestCreateReservationWithAddOns(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	req := defaultCreateReq()
	req.AddOnIDs = []string{"gps"}

	r, quote, err := svc.CreateReservation(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	// 3*5000 + 3*500
	if quote.Total != 16500 || r.TotalPrice != 16500 {
		t.Fatalf("total = %d, want 16500", quote.Total)
	}
	if got := r.AddOnSlice(); len(got) != 1 || got[0] != "gps" {
		t.Fatalf("add-ons = %v", got)
	}
}

func TestCreateReservationValidation(t *testing.T) {
	svc, _, cat, _, _ := newTestService(t)
	ctx := context.Background()

	req := defaultCreateReq()
	req.VehicleID = "missing"
	if _, _, err := svc.CreateReservation(ctx, req); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("err = %v, want ErrVehicleNotFound", err)
	}

	req = defaultCreateReq()
	req.PickupHubID = "missing"
	if _, _, err := svc.CreateReservation(ctx, req); !errors.Is(err, ErrHubNotFound) {
		t.Fatalf("err = %v, want ErrHubNotFound", err)
	}

	req = defaultCreateReq()
	req.StartDate, req.EndDate = day(2024, 6, 3), day(2024, 6, 1)
	if _, _, err := svc.CreateReservation(ctx, req); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}

	req = defaultCreateReq()
	req.EndDate = day(2024, 10, 1)
	if _, _, err := svc.CreateReservation(ctx, req); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}

	req = defaultCreateReq()
	req.AddOnIDs = []string{"old-promo"}
	if _, _, err := svc.CreateReservation(ctx, req); !errors.Is(err, ErrAddOnExpired) {
		t.Fatalf("err = %v, want ErrAddOnExpired", err)
	}

	req = defaultCreateReq()
	req.CustomerID = ""
	if _, _, err := svc.CreateReservation(ctx, req); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	cat.setOccupancy("veh-1", catalog.OccupancyMaintenance)
	if _, _, err := svc.CreateReservation(ctx, defaultCreateReq()); !errors.Is(err, ErrVehicleUnavailable) {
		t.Fatalf("err = %v, want ErrVehicleUnavailable", err)
	}
}

func TestCreateReservationConflict(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.CreateReservation(ctx, defaultCreateReq())
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	req := defaultCreateReq()
	req.CustomerID = "cust-2"
	req.StartDate, req.EndDate = day(2024, 6, 3), day(2024, 6, 5) // 尾日相接也冲突
	_, _, err = svc.CreateReservation(ctx, req)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want *ConflictError", err)
	}
	if conflict.ConflictingID != first.ID {
		t.Fatalf("conflicting id = %s, want %s", conflict.ConflictingID, first.ID)
	}

	// 不重叠的区间可以正常预订
	req.StartDate, req.EndDate = day(2024, 6, 4), day(2024, 6, 6)
	if _, _, err := svc.CreateReservation(ctx, req); err != nil {
		t.Fatalf("non-overlapping create: %v", err)
	}
}

func TestCancelFreesInterval(t *testing.T) {
	svc, store, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.CreateReservation(ctx, defaultCreateReq())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled, err := svc.CancelReservation(ctx, first.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("cancel did not stamp state: %+v", cancelled)
	}
	if notifier.last() != "cancelled" {
		t.Fatalf("expected cancelled event, got %q", notifier.last())
	}
	if occ := store.vehicleOccupancy("veh-1"); occ != catalog.OccupancyAvailable {
		t.Fatalf("occupancy = %s, want available", occ)
	}

	// 取消后同区间可再次预订
	if _, _, err := svc.CreateReservation(ctx, defaultCreateReq()); err != nil {
		t.Fatalf("re-create after cancel: %v", err)
	}

	// 已取消的预订不能再取消
	_, err = svc.CancelReservation(ctx, first.ID)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransitionError", err)
	}
}

func TestLifecycleHandoverAndReturn(t *testing.T) {
	svc, store, _, notifier, clock := newTestService(t)
	ctx := context.Background()

	r, _, err := svc.CreateReservation(ctx, defaultCreateReq())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 油量档位非法
	_, err = svc.RecordHandover(ctx, HandoverRequest{ReservationID: r.ID, FuelStatus: "2/3"})
	if !errors.Is(err, ErrInvalidFuelStatus) {
		t.Fatalf("err = %v, want ErrInvalidFuelStatus", err)
	}

	clock.Set(day(2024, 6, 1))
	out, err := svc.RecordHandover(ctx, HandoverRequest{
		ReservationID: r.ID, FuelStatus: "Full", Notes: "scratch on rear bumper",
	})
	if err != nil {
		t.Fatalf("handover: %v", err)
	}
	if out.Status != StatusCheckedOut || out.FuelAtHandover != FuelFull {
		t.Fatalf("handover not recorded: %+v", out)
	}
	if out.HandoverNotes != "scratch on rear bumper" {
		t.Fatalf("handover notes lost")
	}
	if occ := store.vehicleOccupancy("veh-1"); occ != catalog.OccupancyCheckedOut {
		t.Fatalf("occupancy = %s, want checked_out", occ)
	}
	if notifier.last() != "checked_out" {
		t.Fatalf("expected checked_out event, got %q", notifier.last())
	}

	// 还车日期早于交车日期
	_, err = svc.RecordReturn(ctx, ReturnRequest{
		ReservationID: r.ID, FuelStatus: "1/2", ReturnDate: day(2024, 5, 30),
	})
	if !errors.Is(err, ErrInvalidReturnDate) {
		t.Fatalf("err = %v, want ErrInvalidReturnDate", err)
	}

	clock.Set(day(2024, 6, 3))
	back, err := svc.RecordReturn(ctx, ReturnRequest{
		ReservationID: r.ID, FuelStatus: "1/2", Notes: "needs wash", ReturnDate: day(2024, 6, 3),
	})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if back.Status != StatusReturned || back.FuelAtReturn != FuelHalf {
		t.Fatalf("return not recorded: %+v", back)
	}
	if back.ActualReturn == nil || !back.ActualReturn.Equal(day(2024, 6, 3)) {
		t.Fatalf("actual return date not set")
	}
	if occ := store.vehicleOccupancy("veh-1"); occ != catalog.OccupancyAvailable {
		t.Fatalf("occupancy = %s, want available", occ)
	}

	// 已还车的预订不能再交车
	_, err = svc.RecordHandover(ctx, HandoverRequest{ReservationID: r.ID, FuelStatus: "Full"})
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransitionError", err)
	}
}

func TestModifyReservation(t *testing.T) {
	svc, _, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	r, _, err := svc.CreateReservation(ctx, defaultCreateReq())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 改期 + 加购，重新计价
	newEnd := day(2024, 6, 5)
	mod, quote, err := svc.ModifyReservation(ctx, r.ID, ModifyRequest{
		EndDate:  &newEnd,
		AddOnIDs: []string{"gps"},
	})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	// 5*5000 + 5*500
	if quote.Total != 27500 || mod.TotalPrice != 27500 {
		t.Fatalf("total = %d, want 27500", quote.Total)
	}
	if mod.ConfirmationNumber != r.ConfirmationNumber {
		t.Fatalf("confirmation number changed on modify")
	}
	if notifier.last() != "modified" {
		t.Fatalf("expected modified event, got %q", notifier.last())
	}

	// 与他人预订重叠的改期被拒
	other := defaultCreateReq()
	other.CustomerID = "cust-2"
	other.StartDate, other.EndDate = day(2024, 6, 10), day(2024, 6, 12)
	otherRes, _, err := svc.CreateReservation(ctx, other)
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	badEnd := day(2024, 6, 10)
	_, _, err = svc.ModifyReservation(ctx, r.ID, ModifyRequest{EndDate: &badEnd})
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.ConflictingID != otherRes.ID {
		t.Fatalf("err = %v, want conflict with %s", err, otherRes.ID)
	}

	// 交车后不可修改
	if _, err := svc.RecordHandover(ctx, HandoverRequest{ReservationID: r.ID, FuelStatus: "Full"}); err != nil {
		t.Fatalf("handover: %v", err)
	}
	_, _, err = svc.ModifyReservation(ctx, r.ID, ModifyRequest{EndDate: &newEnd})
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransitionError", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	svc, _, cat, _, _ := newTestService(t)
	ctx := context.Background()

	avail, err := svc.CheckAvailability(ctx, "veh-1", day(2024, 6, 1), day(2024, 6, 3))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !avail.Free {
		t.Fatalf("expected free vehicle")
	}

	r, _, err := svc.CreateReservation(ctx, defaultCreateReq())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	avail, err = svc.CheckAvailability(ctx, "veh-1", day(2024, 6, 2), day(2024, 6, 4))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if avail.Free || avail.ConflictingReservationID != r.ID {
		t.Fatalf("expected conflict with %s, got %+v", r.ID, avail)
	}

	// 取消后区间重新可用
	if _, err := svc.CancelReservation(ctx, r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	avail, _ = svc.CheckAvailability(ctx, "veh-1", day(2024, 6, 2), day(2024, 6, 4))
	if !avail.Free {
		t.Fatalf("expected free after cancel")
	}

	// 维保车辆不可用
	cat.setOccupancy("veh-1", catalog.OccupancyMaintenance)
	avail, _ = svc.CheckAvailability(ctx, "veh-1", day(2024, 7, 1), day(2024, 7, 3))
	if avail.Free {
		t.Fatalf("maintenance vehicle should not be available")
	}
}

func TestListByCustomer(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.CreateReservation(ctx, defaultCreateReq()); err != nil {
		t.Fatalf("create: %v", err)
	}
	req := defaultCreateReq()
	req.StartDate, req.EndDate = day(2024, 7, 1), day(2024, 7, 3)
	if _, _, err := svc.CreateReservation(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, total, err := svc.ListByCustomer(ctx, "cust-1", 0, 20)
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("total = %d, len = %d, want 2", total, len(list))
	}
	if _, total, _ = svc.ListByCustomer(ctx, "nobody", 0, 20); total != 0 {
		t.Fatalf("expected no reservations for unknown customer")
	}
}

func TestDeriveOccupancyForMaintenanceRelease(t *testing.T) {
	svc, _, _, _, clock := newTestService(t)
	ctx := context.Background()

	// 没有在途预订：空闲
	occ, err := svc.DeriveOccupancy(ctx, "veh-1")
	if err != nil {
		t.Fatalf("DeriveOccupancy: %v", err)
	}
	if occ != catalog.OccupancyAvailable {
		t.Fatalf("occupancy = %s, want available", occ)
	}

	// 已交车的预订在途：checked_out
	r, _, err := svc.CreateReservation(ctx, defaultCreateReq())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clock.Set(day(2024, 6, 1))
	if _, err := svc.RecordHandover(ctx, HandoverRequest{ReservationID: r.ID, FuelStatus: "Full"}); err != nil {
		t.Fatalf("handover: %v", err)
	}
	occ, err = svc.DeriveOccupancy(ctx, "veh-1")
	if err != nil {
		t.Fatalf("DeriveOccupancy: %v", err)
	}
	if occ != catalog.OccupancyCheckedOut {
		t.Fatalf("occupancy = %s, want checked_out", occ)
	}
}

func TestDeriveOccupancyCoveringToday(t *testing.T) {
	svc, store, _, _, clock := newTestService(t)
	ctx := context.Background()

	// 下单时刻落在预订区间内，车辆立即转为 reserved
	clock.Set(day(2024, 6, 2))
	if _, _, err := svc.CreateReservation(ctx, defaultCreateReq()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if occ := store.vehicleOccupancy("veh-1"); occ != catalog.OccupancyReserved {
		t.Fatalf("occupancy = %s, want reserved", occ)
	}
}
