package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/middleware"
	"smart-vault-backend/internal/models"
)

type VaultHandler struct {
	engine *ledger.Engine
}

func NewVaultHandler(engine *ledger.Engine) *VaultHandler {
	return &VaultHandler{engine: engine}
}

func (h *VaultHandler) Initialize(c *gin.Context) {
	call := callFrom(c)
	if err := h.engine.InitializeVault(c.Request.Context(), call); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"vault":   models.VaultAddress(call.Signer),
	})
}

func (h *VaultHandler) Deposit(c *gin.Context) {
	var req models.AmountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.Deposit(c.Request.Context(), callFrom(c), req.Amount); err != nil {
		respondError(c, err)
		return
	}
	h.respondVault(c, middleware.Signer(c))
}

func (h *VaultHandler) Withdraw(c *gin.Context) {
	var req models.AmountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.engine.Withdraw(c.Request.Context(), callFrom(c), req.Amount); err != nil {
		respondError(c, err)
		return
	}
	h.respondVault(c, middleware.Signer(c))
}

func (h *VaultHandler) GetOwn(c *gin.Context) {
	h.respondVault(c, middleware.Signer(c))
}

func (h *VaultHandler) GetByOwner(c *gin.Context) {
	owner, err := models.ParseIdentity(c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid owner", "details": err.Error()})
		return
	}
	h.respondVault(c, owner)
}

func (h *VaultHandler) respondVault(c *gin.Context, owner models.Identity) {
	view, err := h.engine.Vault(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"vault":   view,
		"display": gin.H{
			"balance":   models.FormatAmount(view.Balance),
			"available": models.FormatAmount(view.Available),
			"locked":    models.FormatAmount(view.Vault.LockedAmount),
		},
	})
}
