package handler

import (
	"time"

	"yield-wallet/internal/adapter/http/dto"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"
	"yield-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// YieldHandler handles lending pool endpoints.
type YieldHandler struct {
	yieldSvc ports.YieldService
}

// NewYieldHandler creates a new YieldHandler.
func NewYieldHandler(yieldSvc ports.YieldService) *YieldHandler {
	return &YieldHandler{yieldSvc: yieldSvc}
}

// Stats handles GET /api/v1/yield/pool.
func (h *YieldHandler) Stats(c *gin.Context) {
	stats, err := h.yieldSvc.PoolStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Accrue handles POST /api/v1/yield/accrue. Mostly an operational trigger;
// the scheduler calls the same service method.
func (h *YieldHandler) Accrue(c *gin.Context) {
	var req dto.AccrueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperror.Validation(err.Error()))
			return
		}
	}

	now := time.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
	}

	result, err := h.yieldSvc.Accrue(c.Request.Context(), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// SetAPR handles PUT /api/v1/yield/apr.
func (h *YieldHandler) SetAPR(c *gin.Context) {
	var req dto.SetAPRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.yieldSvc.SetAPR(c.Request.Context(), *req.APR); err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.yieldSvc.PoolStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
