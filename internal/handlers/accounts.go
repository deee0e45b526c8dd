package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"school/api/internal/middleware"
	"school/api/internal/models"
	"school/api/internal/service"
)

func (h HandlerSet) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	items := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, toAccountResponse(account))
	}

	c.JSON(http.StatusOK, gin.H{"accounts": items})
}

type createAccountRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Name     string `form:"name" json:"name"`
	Password string `form:"password" json:"password" binding:"required"`
	Confirm  string `form:"confirm" json:"confirm" binding:"required"`
	Role     string `form:"role" json:"role" binding:"required"`
}

func (h HandlerSet) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Email, password and role are required."})
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), service.CreateAccountInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Confirm:  req.Confirm,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account":  toAccountResponse(account),
		"severity": "success",
		"message":  "Account created.",
	})
}

type updateAccountRequest struct {
	Email  string `form:"email" json:"email" binding:"required,email"`
	Name   string `form:"name" json:"name"`
	Role   string `form:"role" json:"role" binding:"required"`
	Active bool   `form:"active" json:"active"`
}

func (h HandlerSet) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Email and role are required."})
		return
	}

	account, err := h.accounts.Update(c.Request.Context(), id, service.UpdateAccountInput{
		Email:  req.Email,
		Name:   req.Name,
		Role:   models.Role(req.Role),
		Active: req.Active,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":  toAccountResponse(account),
		"severity": "success",
		"message":  "Account updated.",
	})
}

func (h HandlerSet) DeleteAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	actor, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), id, actor.ID); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, flash("success", "Account deleted."))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Invalid id."})
		return 0, false
	}
	return id, true
}
