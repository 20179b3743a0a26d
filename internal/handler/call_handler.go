package handler

import (
	"net/http"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/service"
	"github.com/SanduniLK/MediLink/pkg/utils"
	"github.com/gin-gonic/gin"
)

type CallHandler struct {
	callService *service.CallService
}

func NewCallHandler(callService *service.CallService) *CallHandler {
	return &CallHandler{
		callService: callService,
	}
}

type StartCallRequest struct {
	RoomID           string `json:"roomId" binding:"required"`
	PatientID        string `json:"patientId" binding:"required"`
	PatientName      string `json:"patientName"`
	DoctorID         string `json:"doctorId" binding:"required"`
	DoctorName       string `json:"doctorName"`
	ConsultationType string `json:"consultationType"`
}

type EndCallRequest struct {
	RoomID  string `json:"roomId" binding:"required"`
	EndedBy string `json:"endedBy" binding:"omitempty,oneof=doctor patient"`
	Reason  string `json:"reason"`
}

// Start rings a patient over the signaling layer
func (h *CallHandler) Start(c *gin.Context) {
	var req StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.callService.Initiate(c.Request.Context(), service.InitiateParams{
		RoomID:           req.RoomID,
		PatientID:        req.PatientID,
		PatientName:      req.PatientName,
		DoctorID:         req.DoctorID,
		DoctorName:       req.DoctorName,
		ConsultationType: req.ConsultationType,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMessage(c, "Call initiated", session)
}

// End terminates a call session
func (h *CallHandler) End(c *gin.Context) {
	var req EndCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EndedBy == "" {
		req.EndedBy = models.EndedByDoctor
	}

	session, err := h.callService.End(c.Request.Context(), req.RoomID, req.EndedBy, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMessage(c, "Call ended", session)
}

// Get returns the call session for an appointment's room
func (h *CallHandler) Get(c *gin.Context) {
	roomID := c.Param("appointmentId")

	session, err := h.callService.GetSession(c.Request.Context(), roomID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, session)
}
