package staff

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FleetLinkRent/FleetLinkRent/internal/common/auth"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/config"
	"github.com/FleetLinkRent/FleetLinkRent/internal/common/logger"
	commonserver "github.com/FleetLinkRent/FleetLinkRent/internal/common/server"
)

// Handler 员工账户服务的 HTTP 层：注册、登录、个人信息、列表。
type Handler struct {
	repo    *Repo
	authCfg config.AuthConfig
	log     logger.Logger
}

func NewHandler(db *gorm.DB, authCfg config.AuthConfig, log logger.Logger) *Handler {
	return &Handler{
		repo:    NewRepo(db),
		authCfg: authCfg,
		log:     log,
	}
}

// RegisterRoutes 注册员工路由。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/staff")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.GET("/profile", h.profile)
	g.GET("", h.list)
}

type staffResp struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	FullName  string   `json:"full_name,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Email     string   `json:"email,omitempty"`
	HubID     string   `json:"hub_id,omitempty"`
	Roles     []string `json:"roles"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

func toStaffResp(s *Staff) staffResp {
	return staffResp{
		ID:        s.ID,
		Username:  s.Username,
		FullName:  s.FullName,
		Phone:     s.Phone,
		Email:     s.Email,
		HubID:     s.HubID,
		Roles:     s.RolesSlice(),
		CreatedAt: s.CreatedAt.Unix(),
		UpdatedAt: s.UpdatedAt.Unix(),
	}
}

type registerReq struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required"`
	FullName string   `json:"full_name"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email"`
	HubID    string   `json:"hub_id"`
	Roles    []string `json:"roles"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username/password required"})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username/password required"})
		return
	}

	// check existence
	if _, err := h.repo.FindByUsername(c.Request.Context(), username); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.internalError(c, err)
		return
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		h.internalError(c, err)
		return
	}
	hash, err := HashPassword(req.Password, salt)
	if err != nil {
		h.internalError(c, err)
		return
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{"staff"}
	}
	s := &Staff{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		HubID:        strings.TrimSpace(req.HubID),
		Roles:        RolesJoin(roles),
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"staff": toStaffResp(s)})
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username/password required"})
		return
	}

	s, err := h.repo.FindByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !VerifyPassword(req.Password, s.PasswordSalt, s.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := auth.GenerateAccessToken(h.authCfg, s.ID, s.RolesSlice(), s.HubID, 24*time.Hour)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
		"staff":        toStaffResp(s),
	})
}

func (h *Handler) profile(c *gin.Context) {
	ai, ok := commonserver.AuthFromContext(c)
	if !ok || strings.TrimSpace(ai.Subject) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth"})
		return
	}
	s, err := h.repo.FindByID(c.Request.Context(), ai.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "staff not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": toStaffResp(s)})
}

func (h *Handler) list(c *gin.Context) {
	page := atoiDefault(c.Query("page"), 1)
	size := atoiDefault(c.Query("page_size"), 20)
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size
	staffs, total, err := h.repo.List(c.Request.Context(), c.Query("hub_id"), offset, size)
	if err != nil {
		h.internalError(c, err)
		return
	}
	out := make([]staffResp, 0, len(staffs))
	for i := range staffs {
		out = append(out, toStaffResp(&staffs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"staffs": out, "total": total})
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.Errorf("staff handler internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
