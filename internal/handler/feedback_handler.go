package handler

import (
	"net/http"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/service"
	"github.com/SanduniLK/MediLink/pkg/utils"
	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
	}
}

type CreateFeedbackRequest struct {
	AppointmentID string `json:"appointmentId"`
	PatientID     string `json:"patientId" binding:"required"`
	PatientName   string `json:"patientName"`
	DoctorID      string `json:"doctorId" binding:"required"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comment       string `json:"comment"`
}

// Create records a patient's rating for a consultation
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	feedback, err := h.feedbackService.Create(c.Request.Context(), models.Feedback{
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		PatientName:   req.PatientName,
		DoctorID:      req.DoctorID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMessage(c, "Feedback submitted", feedback)
}

// ListForDoctor returns a doctor's feedback, newest first
func (h *FeedbackHandler) ListForDoctor(c *gin.Context) {
	doctorID := c.Param("doctorId")

	list, err := h.feedbackService.ListForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, list)
}

// Rating returns a doctor's aggregate rating
func (h *FeedbackHandler) Rating(c *gin.Context) {
	doctorID := c.Param("doctorId")

	rating, err := h.feedbackService.RatingForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, rating)
}
