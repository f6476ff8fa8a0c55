package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
)

const dateLayout = "2006-01-02"

// Store 主数据存储接口，生产实现为 *Repo。
type Store interface {
	UpsertVehicle(ctx context.Context, v *Vehicle) error
	GetVehicle(ctx context.Context, id string) (*Vehicle, error)
	SetVehicleOccupancy(ctx context.Context, id string, occ Occupancy) error
	ListVehicles(ctx context.Context, hubID, carTypeID string, offset, limit int) ([]Vehicle, int64, error)
	UpsertCarType(ctx context.Context, ct *CarType) error
	ListCarTypes(ctx context.Context) ([]CarType, error)
	UpsertHub(ctx context.Context, h *Hub) error
	ListHubs(ctx context.Context) ([]Hub, error)
	UpsertAddOn(ctx context.Context, a *AddOn) error
	ListAddOns(ctx context.Context) ([]AddOn, error)
}

// OccupancyDeriver 由预订引擎实现：根据车辆的在途预订推导占用状态。
// 解除维保时不能直接写 available，必须经引擎重推。
type OccupancyDeriver interface {
	DeriveOccupancy(ctx context.Context, vehicleID string) (Occupancy, error)
}

// Handler 主数据管理的 HTTP 层（车辆、门店、车型、加购项）。
// 写接口应由 RBAC 限制为 admin 角色，在服务配置里声明。
type Handler struct {
	repo    Store
	deriver OccupancyDeriver
	log     logger.Logger
}

func NewHandler(repo Store, deriver OccupancyDeriver, log logger.Logger) *Handler {
	return &Handler{repo: repo, deriver: deriver, log: log}
}

// RegisterRoutes 注册主数据路由。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/catalog")
	g.POST("/vehicle", h.upsertVehicle)
	g.GET("/vehicle/:id", h.getVehicle)
	g.GET("/vehicle", h.listVehicles)
	g.POST("/vehicle/:id/maintenance", h.setMaintenance)
	g.POST("/cartype", h.upsertCarType)
	g.GET("/cartype", h.listCarTypes)
	g.POST("/hub", h.upsertHub)
	g.GET("/hub", h.listHubs)
	g.POST("/addon", h.upsertAddOn)
	g.GET("/addon", h.listAddOns)
}

type vehicleReq struct {
	ID          string `json:"id"`
	PlateNumber string `json:"plate_number" binding:"required"`
	VIN         string `json:"vin"`
	CarTypeID   string `json:"car_type_id" binding:"required"`
	HubID       string `json:"hub_id" binding:"required"`
}

func (h *Handler) upsertVehicle(c *gin.Context) {
	var req vehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	v := Vehicle{
		ID:          req.ID,
		PlateNumber: req.PlateNumber,
		VIN:         req.VIN,
		CarTypeID:   req.CarTypeID,
		HubID:       req.HubID,
		Occupancy:   OccupancyAvailable,
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	} else {
		// 占用状态只归预订引擎和维保开关管，编辑主数据不得覆盖
		existing, err := h.repo.GetVehicle(c.Request.Context(), v.ID)
		switch {
		case err == nil:
			v.Occupancy = existing.Occupancy
			v.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 新车辆，保持 available
		default:
			h.internalError(c, err)
			return
		}
	}
	if err := h.repo.UpsertVehicle(c.Request.Context(), &v); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": v})
}

func (h *Handler) getVehicle(c *gin.Context) {
	v, err := h.repo.GetVehicle(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": v})
}

func (h *Handler) listVehicles(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, total, err := h.repo.ListVehicles(c.Request.Context(),
		c.Query("hub_id"), c.Query("car_type_id"), offset, limit)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": list, "total": total})
}

type maintenanceReq struct {
	Enabled bool `json:"enabled"`
}

// setMaintenance 维保开关：开启后车辆退出预订池；
// 解除时按在途预订重推占用状态，不能直接写空闲。
func (h *Handler) setMaintenance(c *gin.Context) {
	var req maintenanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	occ := OccupancyMaintenance
	if !req.Enabled {
		derived, err := h.deriver.DeriveOccupancy(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.internalError(c, err)
			return
		}
		occ = derived
	}
	err := h.repo.SetVehicleOccupancy(c.Request.Context(), c.Param("id"), occ)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.log.Infof("vehicle maintenance flag updated: id=%s occupancy=%s", c.Param("id"), occ)
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "occupancy": occ})
}

type carTypeReq struct {
	ID        string `json:"id"`
	Name      string `json:"name" binding:"required"`
	DailyRate int64  `json:"daily_rate" binding:"required"` // 单位：分
	Currency  string `json:"currency"`
	Seats     int    `json:"seats"`
}

func (h *Handler) upsertCarType(c *gin.Context) {
	var req carTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.DailyRate < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daily_rate must not be negative"})
		return
	}
	ct := CarType{
		ID:        req.ID,
		Name:      req.Name,
		DailyRate: req.DailyRate,
		Currency:  req.Currency,
		Seats:     req.Seats,
	}
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	if ct.Currency == "" {
		ct.Currency = "USD"
	}
	if err := h.repo.UpsertCarType(c.Request.Context(), &ct); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car_type": ct})
}

func (h *Handler) listCarTypes(c *gin.Context) {
	list, err := h.repo.ListCarTypes(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car_types": list})
}

type hubReq struct {
	ID      string `json:"id"`
	Name    string `json:"name" binding:"required"`
	City    string `json:"city"`
	Address string `json:"address"`
}

func (h *Handler) upsertHub(c *gin.Context) {
	var req hubReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	hub := Hub{ID: req.ID, Name: req.Name, City: req.City, Address: req.Address}
	if hub.ID == "" {
		hub.ID = uuid.NewString()
	}
	if err := h.repo.UpsertHub(c.Request.Context(), &hub); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hub": hub})
}

func (h *Handler) listHubs(c *gin.Context) {
	list, err := h.repo.ListHubs(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hubs": list})
}

type addOnReq struct {
	ID         string `json:"id"`
	Name       string `json:"name" binding:"required"`
	DailyRate  int64  `json:"daily_rate" binding:"required"` // 单位：分
	ValidFrom  string `json:"valid_from" binding:"required"`
	ValidUntil string `json:"valid_until" binding:"required"`
}

func (h *Handler) upsertAddOn(c *gin.Context) {
	var req addOnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.DailyRate < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daily_rate must not be negative"})
		return
	}
	from, err := time.Parse(dateLayout, req.ValidFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_from, expected YYYY-MM-DD"})
		return
	}
	until, err := time.Parse(dateLayout, req.ValidUntil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_until, expected YYYY-MM-DD"})
		return
	}
	if until.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid_until must not precede valid_from"})
		return
	}
	a := AddOn{
		ID:         req.ID,
		Name:       req.Name,
		DailyRate:  req.DailyRate,
		ValidFrom:  from,
		ValidUntil: until,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := h.repo.UpsertAddOn(c.Request.Context(), &a); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"add_on": a})
}

func (h *Handler) listAddOns(c *gin.Context) {
	list, err := h.repo.ListAddOns(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"add_ons": list})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.Errorf("catalog handler internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
