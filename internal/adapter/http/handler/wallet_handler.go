package handler

import (
	"yield-wallet/internal/adapter/http/dto"
	"yield-wallet/internal/adapter/http/middleware"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"
	"yield-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet read and credit endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Get handles GET /api/v1/wallet.
func (h *WalletHandler) Get(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	snapshot, err := h.walletSvc.Snapshot(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.WalletFromSnapshot(snapshot))
}

// Topup handles POST /api/v1/wallet/topup.
func (h *WalletHandler) Topup(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.walletSvc.Topup(c.Request.Context(), ownerID, req.Amount, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"entry":         result.Entry,
		"staked":        result.Staked,
		"shares_issued": result.SharesIssued,
		"wallet":        dto.WalletFromSnapshot(result.Wallet),
	})
}

// SetAutoStake handles PUT /api/v1/wallet/autostake.
func (h *WalletHandler) SetAutoStake(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.AutoStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.walletSvc.SetAutoStake(c.Request.Context(), ownerID, *req.Enabled)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"auto_stake_enabled": wallet.AutoStakeEnabled})
}

// Ledger handles GET /api/v1/wallet/ledger.
func (h *WalletHandler) Ledger(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var q dto.LedgerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	entries, err := h.walletSvc.Ledger(c.Request.Context(), ownerID, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"entries": entries, "count": len(entries)})
}
