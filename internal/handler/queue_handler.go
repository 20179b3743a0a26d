package handler

import (
	"fmt"
	"net/http"

	"github.com/SanduniLK/MediLink/internal/service"
	"github.com/SanduniLK/MediLink/pkg/utils"
	"github.com/gin-gonic/gin"
)

type QueueHandler struct {
	queueService *service.QueueService
}

func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

type StartQueueRequest struct {
	ScheduleID string `json:"scheduleId" binding:"required"`
}

type CheckInRequest struct {
	ScheduleID string `json:"scheduleId" binding:"required"`
	PatientID  string `json:"patientId" binding:"required"`
}

type AdvanceQueueRequest struct {
	ScheduleID string `json:"scheduleId" binding:"required"`
}

// StartQueue snapshots a schedule's physical appointments into a queue
func (h *QueueHandler) StartQueue(c *gin.Context) {
	var req StartQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.queueService.StartQueue(c.Request.Context(), req.ScheduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMessage(c,
		fmt.Sprintf("Queue started with %d physical patients", result.TotalPatients),
		result.Queue)
}

// CheckIn marks a patient as arrived for their physical appointment
func (h *QueueHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.queueService.CheckIn(c.Request.Context(), req.ScheduleID, req.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMessage(c, "Patient checked in successfully", result)
}

// Next completes the current consultation and calls the next token
func (h *QueueHandler) Next(c *gin.Context) {
	var req AdvanceQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.queueService.Advance(c.Request.Context(), req.ScheduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !result.QueueActive {
		utils.SuccessResponseWithMessage(c, "Queue completed - all physical patients seen", result)
		return
	}
	utils.SuccessResponseWithMessage(c, "Next physical patient called", result)
}

// GetForSchedule returns the active queue for a schedule
func (h *QueueHandler) GetForSchedule(c *gin.Context) {
	scheduleID := c.Param("scheduleId")

	queue, err := h.queueService.GetQueueForSchedule(c.Request.Context(), scheduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, queue)
}

// GetForPatient returns a patient's live position in a running queue
func (h *QueueHandler) GetForPatient(c *gin.Context) {
	patientID := c.Param("patientId")

	view, err := h.queueService.GetQueueForPatient(c.Request.Context(), patientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, view)
}

// ActiveForCenter lists running queues at a medical center
func (h *QueueHandler) ActiveForCenter(c *gin.Context) {
	centerID := c.Param("medicalCenterId")

	queues, err := h.queueService.ActiveQueuesForCenter(c.Request.Context(), centerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, queues)
}

// PatientAppointments lists a patient's appointments with queue context
func (h *QueueHandler) PatientAppointments(c *gin.Context) {
	patientID := c.Param("patientId")

	appointments, err := h.queueService.PatientAppointments(c.Request.Context(), patientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, appointments)
}
