package handler

import (
	"github.com/SanduniLK/MediLink/internal/service"
	"github.com/SanduniLK/MediLink/pkg/utils"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
	}
}

// ListForDoctor returns all schedules owned by a doctor
func (h *ScheduleHandler) ListForDoctor(c *gin.Context) {
	doctorID := c.Param("doctorId")

	schedules, err := h.scheduleService.SchedulesForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, schedules)
}

// Get returns one schedule by id
func (h *ScheduleHandler) Get(c *gin.Context) {
	scheduleID := c.Param("scheduleId")

	schedule, err := h.scheduleService.GetSchedule(c.Request.Context(), scheduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, schedule)
}

// Dashboard returns the calling doctor's aggregate workload counters
func (h *ScheduleHandler) Dashboard(c *gin.Context) {
	doctorID := c.GetString("userID")

	stats, err := h.scheduleService.Dashboard(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}
