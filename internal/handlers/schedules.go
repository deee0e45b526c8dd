package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school/api/internal/models"
	"school/api/internal/service"
)

type scheduleResponse struct {
	ID        int64  `json:"id"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Range     string `json:"range"`
}

func toScheduleResponse(schedule models.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:        schedule.ID,
		StartTime: schedule.StartTime,
		EndTime:   schedule.EndTime,
		Range:     schedule.Range(),
	}
}

func (h HandlerSet) ListSchedules(c *gin.Context) {
	schedules, err := h.schedules.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	items := make([]scheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		items = append(items, toScheduleResponse(schedule))
	}

	c.JSON(http.StatusOK, gin.H{"schedules": items})
}

type scheduleRequest struct {
	StartTime string `form:"start_time" json:"startTime" binding:"required"`
	EndTime   string `form:"end_time" json:"endTime" binding:"required"`
}

func (h HandlerSet) CreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Start and end times are required."})
		return
	}

	schedule, err := h.schedules.Create(c.Request.Context(), service.ScheduleInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"schedule": toScheduleResponse(schedule),
		"severity": "success",
		"message":  "Schedule created.",
	})
}

func (h HandlerSet) UpdateSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req scheduleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Start and end times are required."})
		return
	}

	schedule, err := h.schedules.Update(c.Request.Context(), id, service.ScheduleInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule": toScheduleResponse(schedule),
		"severity": "success",
		"message":  "Schedule updated.",
	})
}

func (h HandlerSet) DeleteSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.schedules.Delete(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, flash("success", "Schedule deleted."))
}
