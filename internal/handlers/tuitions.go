package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school/api/internal/models"
	"school/api/internal/service"
)

type tuitionResponse struct {
	ID     int64  `json:"id"`
	Grade  string `json:"grade"`
	Amount string `json:"amount"`
}

func toTuitionResponse(tier models.TuitionTier) tuitionResponse {
	return tuitionResponse{
		ID:     tier.ID,
		Grade:  tier.Grade,
		Amount: tier.Amount(),
	}
}

func (h HandlerSet) ListTuitionTiers(c *gin.Context) {
	tiers, err := h.tuitions.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	items := make([]tuitionResponse, 0, len(tiers))
	for _, tier := range tiers {
		items = append(items, toTuitionResponse(tier))
	}

	c.JSON(http.StatusOK, gin.H{"tuitionTiers": items})
}

type tuitionRequest struct {
	Grade  string `form:"grade" json:"grade" binding:"required"`
	Amount string `form:"amount" json:"amount" binding:"required"`
}

func (h HandlerSet) CreateTuitionTier(c *gin.Context) {
	var req tuitionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Grade and amount are required."})
		return
	}

	tier, err := h.tuitions.Create(c.Request.Context(), service.TuitionInput{
		Grade:  req.Grade,
		Amount: req.Amount,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"tuitionTier": toTuitionResponse(tier),
		"severity":    "success",
		"message":     "Tuition tier created.",
	})
}

func (h HandlerSet) UpdateTuitionTier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req tuitionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Grade and amount are required."})
		return
	}

	tier, err := h.tuitions.Update(c.Request.Context(), id, service.TuitionInput{
		Grade:  req.Grade,
		Amount: req.Amount,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tuitionTier": toTuitionResponse(tier),
		"severity":    "success",
		"message":     "Tuition tier updated.",
	})
}

func (h HandlerSet) DeleteTuitionTier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.tuitions.Delete(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, flash("success", "Tuition tier deleted."))
}
