package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(args ...interface{})                         {}
func (nopLogger) Debugf(format string, args ...interface{})         {}
func (nopLogger) Info(args ...interface{})                          {}
func (nopLogger) Infof(format string, args ...interface{})          {}
func (nopLogger) Warn(args ...interface{})                          {}
func (nopLogger) Warnf(format string, args ...interface{})          {}
func (nopLogger) Error(args ...interface{})                         {}
func (nopLogger) Errorf(format string, args ...interface{})         {}
func (nopLogger) Fatal(args ...interface{})                         {}
func (nopLogger) Fatalf(format string, args ...interface{})         {}
func (l nopLogger) WithFields(map[string]interface{}) logger.Logger { return l }
func (l nopLogger) WithField(string, interface{}) logger.Logger     { return l }

// memStore 内存版 Store，只覆盖车辆路径，其余实体直接放行。
type memStore struct {
	vehicles map[string]Vehicle
}

func newMemStore() *memStore {
	return &memStore{vehicles: make(map[string]Vehicle)}
}

func (s *memStore) UpsertVehicle(_ context.Context, v *Vehicle) error {
	s.vehicles[v.ID] = *v
	return nil
}

func (s *memStore) GetVehicle(_ context.Context, id string) (*Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (s *memStore) SetVehicleOccupancy(_ context.Context, id string, occ Occupancy) error {
	v, ok := s.vehicles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Occupancy = occ
	s.vehicles[id] = v
	return nil
}

func (s *memStore) ListVehicles(context.Context, string, string, int, int) ([]Vehicle, int64, error) {
	return nil, 0, nil
}
func (s *memStore) UpsertCarType(context.Context, *CarType) error { return nil }
func (s *memStore) ListCarTypes(context.Context) ([]CarType, error) {
	return nil, nil
}
func (s *memStore) UpsertHub(context.Context, *Hub) error   { return nil }
func (s *memStore) ListHubs(context.Context) ([]Hub, error) { return nil, nil }
func (s *memStore) UpsertAddOn(context.Context, *AddOn) error {
	return nil
}
func (s *memStore) ListAddOns(context.Context) ([]AddOn, error) { return nil, nil }

// fixedDeriver 固定返回一个占用状态，模拟预订引擎的推导结果。
type fixedDeriver struct {
	occ Occupancy
}

func (d fixedDeriver) DeriveOccupancy(context.Context, string) (Occupancy, error) {
	return d.occ, nil
}

func newTestRouter(store Store, deriver OccupancyDeriver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(store, deriver, nopLogger{}).RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// 编辑已有车辆的主数据不得覆盖派生的占用状态。
func TestUpsertVehiclePreservesOccupancy(t *testing.T) {
	store := newMemStore()
	store.vehicles["veh-1"] = Vehicle{
		ID: "veh-1", PlateNumber: "OLD-123", CarTypeID: "ct-1",
		HubID: "hub-1", Occupancy: OccupancyCheckedOut,
	}
	r := newTestRouter(store, fixedDeriver{occ: OccupancyAvailable})

	w := postJSON(t, r, "/catalog/vehicle", gin.H{
		"id":           "veh-1",
		"plate_number": "NEW-456",
		"car_type_id":  "ct-1",
		"hub_id":       "hub-2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	got := store.vehicles["veh-1"]
	if got.PlateNumber != "NEW-456" || got.HubID != "hub-2" {
		t.Fatalf("master data not updated: %+v", got)
	}
	if got.Occupancy != OccupancyCheckedOut {
		t.Fatalf("occupancy = %s, want checked_out preserved", got.Occupancy)
	}
}

func TestUpsertVehicleNewDefaultsToAvailable(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(store, fixedDeriver{occ: OccupancyAvailable})

	w := postJSON(t, r, "/catalog/vehicle", gin.H{
		"id":           "veh-9",
		"plate_number": "FRESH-1",
		"car_type_id":  "ct-1",
		"hub_id":       "hub-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := store.vehicles["veh-9"].Occupancy; got != OccupancyAvailable {
		t.Fatalf("occupancy = %s, want available", got)
	}
}

// 解除维保时占用状态由预订引擎重推，而不是直接写 available。
func TestMaintenanceReleaseRederivesOccupancy(t *testing.T) {
	store := newMemStore()
	store.vehicles["veh-1"] = Vehicle{
		ID: "veh-1", PlateNumber: "ABC-123", CarTypeID: "ct-1",
		HubID: "hub-1", Occupancy: OccupancyAvailable,
	}
	// 车上还有一条已交车的预订
	r := newTestRouter(store, fixedDeriver{occ: OccupancyCheckedOut})

	w := postJSON(t, r, "/catalog/vehicle/veh-1/maintenance", gin.H{"enabled": true})
	if w.Code != http.StatusOK {
		t.Fatalf("enable status = %d", w.Code)
	}
	if got := store.vehicles["veh-1"].Occupancy; got != OccupancyMaintenance {
		t.Fatalf("occupancy = %s, want maintenance", got)
	}

	w = postJSON(t, r, "/catalog/vehicle/veh-1/maintenance", gin.H{"enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("disable status = %d", w.Code)
	}
	if got := store.vehicles["veh-1"].Occupancy; got != OccupancyCheckedOut {
		t.Fatalf("occupancy = %s, want checked_out rederived", got)
	}
}
