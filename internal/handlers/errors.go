package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/middleware"
)

var kindStatus = map[ledger.Kind]int{
	ledger.KindValidation:    http.StatusBadRequest,
	ledger.KindAuthorization: http.StatusForbidden,
	ledger.KindState:         http.StatusConflict,
	ledger.KindBalance:       http.StatusUnprocessableEntity,
	ledger.KindArithmetic:    http.StatusInternalServerError,
	ledger.KindAvailability:  http.StatusServiceUnavailable,
	ledger.KindNotFound:      http.StatusNotFound,
}

func respondError(c *gin.Context, err error) {
	if le, ok := ledger.AsError(err); ok {
		status, known := kindStatus[le.Kind]
		if !known {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": le.Message, "code": le.Code})
		return
	}

	slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func callFrom(c *gin.Context) ledger.Call {
	return ledger.Call{Signer: middleware.Signer(c), Data: middleware.CallData(c)}
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
