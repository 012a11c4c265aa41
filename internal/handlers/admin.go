package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
)

type AdjustmentLister interface {
	List(ctx context.Context, owner models.Identity, limit int) ([]*models.AdjustmentEvent, error)
}

// AdminHandler covers the house pool, the pause switch and authority
// rotation.
type AdminHandler struct {
	engine *ledger.Engine
	audit  AdjustmentLister
	clock  func() time.Time
}

func NewAdminHandler(engine *ledger.Engine, audit AdjustmentLister) *AdminHandler {
	return &AdminHandler{engine: engine, audit: audit, clock: time.Now}
}

func (h *AdminHandler) InitializeHouse(c *gin.Context) {
	var req models.InitializeHouseRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.engine.InitializeHouse(c.Request.Context(), callFrom(c), req.PrimaryAuthority, req.SecondaryAuthority)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "house": models.HouseAddress()})
}

func (h *AdminHandler) GetHouse(c *gin.Context) {
	view, err := h.engine.House(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"house":   view,
		"display": gin.H{
			"balance":      models.FormatAmount(view.Balance),
			"total_volume": models.FormatAmount(view.House.TotalVolume),
		},
	})
}

func (h *AdminHandler) FundHouse(c *gin.Context) {
	var req models.AmountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.FundHouse(c.Request.Context(), callFrom(c), req.Amount); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *AdminHandler) InitializePauseConfig(c *gin.Context) {
	var req models.InitializePauseConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	var hours uint8
	if req.MaintenanceDurationHours != nil {
		hours = *req.MaintenanceDurationHours
	}
	if err := h.engine.InitializePauseConfig(c.Request.Context(), callFrom(c), hours); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "pause_config": models.PauseConfigAddress()})
}

func (h *AdminHandler) ClosePauseConfig(c *gin.Context) {
	if err := h.engine.ClosePauseConfig(c.Request.Context(), callFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	h.pauseTransition(c, h.engine.StartMaintenancePause)
}

func (h *AdminHandler) EmergencyPause(c *gin.Context) {
	h.pauseTransition(c, h.engine.EmergencyPause)
}

func (h *AdminHandler) Unpause(c *gin.Context) {
	h.pauseTransition(c, h.engine.Unpause)
}

func (h *AdminHandler) pauseTransition(c *gin.Context, op func(context.Context, ledger.Call) error) {
	if err := op(c.Request.Context(), callFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	h.PauseStatus(c)
}

func (h *AdminHandler) PauseStatus(c *gin.Context) {
	status, err := h.engine.PauseStatus(c.Request.Context(), h.clock())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

func (h *AdminHandler) ChangeAuthority(c *gin.Context) {
	var req models.ChangeAuthorityRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.ChangeAuthority(c.Request.Context(), callFrom(c), req.NewPrimary, req.NewSecondary); err != nil {
		respondError(c, err)
		return
	}
	h.GetHouse(c)
}

func (h *AdminHandler) ListAdjustments(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Audit log not configured"})
		return
	}

	var owner models.Identity
	if raw := c.Query("owner"); raw != "" {
		parsed, err := models.ParseIdentity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid owner", "details": err.Error()})
			return
		}
		owner = parsed
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	adjustments, err := h.audit.List(c.Request.Context(), owner, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if adjustments == nil {
		adjustments = []*models.AdjustmentEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "adjustments": adjustments})
}
