package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
)

const dateLayout = "2006-01-02"

// Handler 预订服务的 HTTP 层。
type Handler struct {
	svc *Service
	log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes 注册预订路由。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/booking")
	g.POST("/create", h.create)
	g.POST("/cancel/:id", h.cancel)
	g.PUT("/modify/:id", h.modify)
	g.POST("/handover", h.handover)
	g.POST("/return", h.recordReturn)
	g.GET("/availability", h.availability)
	g.GET("/confirmation/:code", h.getByConfirmation)
	g.GET("/customer/:id", h.listByCustomer)
	g.GET("/:id", h.get)
	g.GET("", h.list)
}

type createReq struct {
	CustomerID  string   `json:"customer_id" binding:"required"`
	VehicleID   string   `json:"vehicle_id" binding:"required"`
	PickupHubID string   `json:"pickup_hub_id" binding:"required"`
	ReturnHubID string   `json:"return_hub_id" binding:"required"`
	StartDate   string   `json:"start_date" binding:"required"`
	EndDate     string   `json:"end_date" binding:"required"`
	AddOnIDs    []string `json:"add_on_ids"`
}

type reservationResp struct {
	ID                 string   `json:"id"`
	ConfirmationNumber string   `json:"confirmation_number"`
	CustomerID         string   `json:"customer_id"`
	VehicleID          string   `json:"vehicle_id"`
	PickupHubID        string   `json:"pickup_hub_id"`
	ReturnHubID        string   `json:"return_hub_id"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	AddOnIDs           []string `json:"add_on_ids,omitempty"`
	TotalPrice         int64    `json:"total_price"` // 单位：分
	TotalPriceDisplay  string   `json:"total_price_display"`
	Currency           string   `json:"currency"`
	Status             Status   `json:"status"`
	FuelAtHandover     string   `json:"fuel_at_handover,omitempty"`
	FuelAtReturn       string   `json:"fuel_at_return,omitempty"`
	HandoverNotes      string   `json:"handover_notes,omitempty"`
	ReturnNotes        string   `json:"return_notes,omitempty"`
	ActualReturnDate   string   `json:"actual_return_date,omitempty"`
	CreatedAt          string   `json:"created_at"`
}

func toReservationResp(r *Reservation) reservationResp {
	resp := reservationResp{
		ID:                 r.ID,
		ConfirmationNumber: r.ConfirmationNumber,
		CustomerID:         r.CustomerID,
		VehicleID:          r.VehicleID,
		PickupHubID:        r.PickupHubID,
		ReturnHubID:        r.ReturnHubID,
		StartDate:          r.StartDate.Format(dateLayout),
		EndDate:            r.EndDate.Format(dateLayout),
		AddOnIDs:           r.AddOnSlice(),
		TotalPrice:         r.TotalPrice,
		TotalPriceDisplay:  FormatAmount(r.TotalPrice),
		Currency:           r.Currency,
		Status:             r.Status,
		FuelAtHandover:     string(r.FuelAtHandover),
		FuelAtReturn:       string(r.FuelAtReturn),
		HandoverNotes:      r.HandoverNotes,
		ReturnNotes:        r.ReturnNotes,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
	if r.ActualReturn != nil {
		resp.ActualReturnDate = r.ActualReturn.Format(dateLayout)
	}
	return resp
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, expected YYYY-MM-DD"})
		return
	}

	r, quote, err := h.svc.CreateReservation(c.Request.Context(), CreateRequest{
		CustomerID:  req.CustomerID,
		VehicleID:   req.VehicleID,
		PickupHubID: req.PickupHubID,
		ReturnHubID: req.ReturnHubID,
		StartDate:   start,
		EndDate:     end,
		AddOnIDs:    req.AddOnIDs,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reservation": toReservationResp(r),
		"quote":       quote,
	})
}

func (h *Handler) cancel(c *gin.Context) {
	r, err := h.svc.CancelReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": toReservationResp(r)})
}

type modifyReq struct {
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
	AddOnIDs  []string `json:"add_on_ids"`
}

func (h *Handler) modify(c *gin.Context) {
	var req modifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var mod ModifyRequest
	if req.StartDate != nil {
		t, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		mod.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, expected YYYY-MM-DD"})
			return
		}
		mod.EndDate = &t
	}
	mod.AddOnIDs = req.AddOnIDs

	r, quote, err := h.svc.ModifyReservation(c.Request.Context(), c.Param("id"), mod)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservation": toReservationResp(r),
		"quote":       quote,
	})
}

type handoverReq struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	FuelStatus    string `json:"fuel_status" binding:"required"`
	Notes         string `json:"notes"`
}

func (h *Handler) handover(c *gin.Context) {
	var req handoverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	r, err := h.svc.RecordHandover(c.Request.Context(), HandoverRequest{
		ReservationID: req.ReservationID,
		FuelStatus:    req.FuelStatus,
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": toReservationResp(r)})
}

type returnReq struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	FuelStatus    string `json:"fuel_status" binding:"required"`
	Notes         string `json:"notes"`
	ReturnDate    string `json:"return_date" binding:"required"`
}

func (h *Handler) recordReturn(c *gin.Context) {
	var req returnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	returnDate, err := time.Parse(dateLayout, req.ReturnDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid return_date, expected YYYY-MM-DD"})
		return
	}
	r, err := h.svc.RecordReturn(c.Request.Context(), ReturnRequest{
		ReservationID: req.ReservationID,
		FuelStatus:    req.FuelStatus,
		Notes:         req.Notes,
		ReturnDate:    returnDate,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": toReservationResp(r)})
}

func (h *Handler) availability(c *gin.Context) {
	vehicleID := c.Query("vehicle_id")
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id is required"})
		return
	}
	start, err := time.Parse(dateLayout, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, expected YYYY-MM-DD"})
		return
	}
	avail, err := h.svc.CheckAvailability(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.svc.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": toReservationResp(r)})
}

func (h *Handler) getByConfirmation(c *gin.Context) {
	r, err := h.svc.GetByConfirmation(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": toReservationResp(r)})
}

func (h *Handler) listByCustomer(c *gin.Context) {
	offset, limit := pagination(c)
	list, total, err := h.svc.ListByCustomer(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeList(c, list, total)
}

func (h *Handler) list(c *gin.Context) {
	offset, limit := pagination(c)
	list, total, err := h.svc.List(c.Request.Context(), Status(c.Query("status")), offset, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeList(c, list, total)
}

func (h *Handler) writeList(c *gin.Context, list []Reservation, total int64) {
	out := make([]reservationResp, 0, len(list))
	for i := range list {
		out = append(out, toReservationResp(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out, "total": total})
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

// writeError 把业务错误映射到 HTTP 状态码：
// NotFound -> 404，输入类错误 -> 400，冲突类 -> 409，其余 -> 500。
func (h *Handler) writeError(c *gin.Context, err error) {
	var conflict *ConflictError
	var transition *TransitionError
	switch {
	case IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidReturnDate),
		errors.Is(err, ErrInvalidFuelStatus),
		errors.Is(err, ErrAddOnExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":                      err.Error(),
			"conflicting_reservation_id": conflict.ConflictingID,
		})
	case errors.As(err, &transition),
		errors.Is(err, ErrVehicleUnavailable),
		errors.Is(err, ErrConfirmationGeneration):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("booking handler internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
