package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
)

// SettlementHandler exposes the operations reserved for the settlement
// authority.
type SettlementHandler struct {
	engine *ledger.Engine
}

func NewSettlementHandler(engine *ledger.Engine) *SettlementHandler {
	return &SettlementHandler{engine: engine}
}

func (h *SettlementHandler) PlaceBet(c *gin.Context) {
	var req models.PlaceBetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.PlaceBet(c.Request.Context(), callFrom(c), req.Owner, req.Stake); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *SettlementHandler) SettleGame(c *gin.Context) {
	var req models.SettleGameRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.SettleGame(c.Request.Context(), callFrom(c), req.Owner, req.Stake, req.Payout); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *SettlementHandler) BetAndSettle(c *gin.Context) {
	var req models.BetAndSettleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.BetAndSettle(c.Request.Context(), callFrom(c), req); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *SettlementHandler) BatchSettle(c *gin.Context) {
	var req models.BatchSettleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.BatchSettle(c.Request.Context(), callFrom(c), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settled": len(req.Stakes)})
}

func (h *SettlementHandler) CreditWin(c *gin.Context) {
	var req models.OwnerAmountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.CreditWin(c.Request.Context(), callFrom(c), req.Owner, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}

func (h *SettlementHandler) DebitLoss(c *gin.Context) {
	var req models.OwnerAmountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.DebitLoss(c.Request.Context(), callFrom(c), req.Owner, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	ok(c)
}
