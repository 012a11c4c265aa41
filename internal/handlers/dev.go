package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-vault-backend/internal/models"
)

type Airdropper interface {
	Airdrop(ctx context.Context, recipient models.Identity, amount uint64) error
}

// DevHandler mints wallet funds. It is only routed outside production.
type DevHandler struct {
	host Airdropper
}

func NewDevHandler(host Airdropper) *DevHandler {
	return &DevHandler{host: host}
}

func (h *DevHandler) Airdrop(c *gin.Context) {
	var req models.AirdropRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Amount == 0 || req.Recipient.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Recipient and a positive amount are required"})
		return
	}
	if err := h.host.Airdrop(c.Request.Context(), req.Recipient, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"recipient": req.Recipient,
		"wallet":    models.WalletAddress(req.Recipient),
		"amount":    models.FormatAmount(req.Amount),
	})
}
