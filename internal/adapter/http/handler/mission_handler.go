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

// MissionHandler handles mission enrollment endpoints.
type MissionHandler struct {
	missionSvc ports.MissionService
}

// NewMissionHandler creates a new MissionHandler.
func NewMissionHandler(missionSvc ports.MissionService) *MissionHandler {
	return &MissionHandler{missionSvc: missionSvc}
}

// Enroll handles POST /api/v1/missions/enroll.
func (h *MissionHandler) Enroll(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	missionID, err := uuid.Parse(req.MissionID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid mission_id"))
		return
	}

	progress, err := h.missionSvc.Enroll(c.Request.Context(), ownerID, missionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, progress)
}

// List handles GET /api/v1/missions.
func (h *MissionHandler) List(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	enrollments, err := h.missionSvc.ListEnrollments(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"enrollments": enrollments, "count": len(enrollments)})
}
