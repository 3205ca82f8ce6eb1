package handler

import (
	"yield-wallet/internal/adapter/http/dto"
	"yield-wallet/internal/adapter/http/middleware"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"
	"yield-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POSHandler handles point-of-sale authorization and refund endpoints.
type POSHandler struct {
	purchaseSvc ports.PurchaseService
}

// NewPOSHandler creates a new POSHandler.
func NewPOSHandler(purchaseSvc ports.PurchaseService) *POSHandler {
	return &POSHandler{purchaseSvc: purchaseSvc}
}

// Authorize handles POST /api/v1/pos/authorize.
func (h *POSHandler) Authorize(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant_id"))
		return
	}

	result, err := h.purchaseSvc.Authorize(c.Request.Context(), ports.AuthorizeRequest{
		OwnerID:    ownerID,
		CardNumber: req.CardNumber,
		MerchantID: merchantID,
		Amount:     req.Amount,
		Currency:   req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Refund handles POST /api/v1/pos/refund.
func (h *POSHandler) Refund(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction_id"))
		return
	}

	result, err := h.purchaseSvc.Refund(c.Request.Context(), ports.RefundRequest{
		OwnerID:       ownerID,
		TransactionID: txID,
		Amount:        req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
