package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school/api/internal/middleware"
	"school/api/internal/models"
	"school/api/internal/security"
	"school/api/internal/service"
)

type loginRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
	Remember bool   `form:"remember" json:"remember"`
	Next     string `form:"next" json:"next"`
}

type accountResponse struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

func toAccountResponse(account models.Account) accountResponse {
	return accountResponse{
		ID:     account.ID,
		Email:  account.Email,
		Name:   account.Name,
		Role:   string(account.Role),
		Active: account.Active,
	}
}

// LoginForm is the anonymous landing target for redirected requests.
// The HTML form itself belongs to the view collaborator.
func (h HandlerSet) LoginForm(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": "Sign in to continue.",
		"next":    c.Query("next"),
	})
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Email and password are required."})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	maxAge := int(h.cfg.Security.SessionTTL.Seconds())
	if req.Remember {
		maxAge = int(h.cfg.Security.RememberTTL.Seconds())
	}
	c.SetCookie(h.cfg.Security.CookieName, result.Token, maxAge, "/", "", h.cfg.Security.CookieSecure, true)

	next := req.Next
	if next == "" {
		next = c.Query("next")
	}
	c.Redirect(http.StatusSeeOther, security.SafeRedirect(next, c.Request, defaultLanding))
}

// Logout clears the session and the cookie. Logging out twice is fine.
func (h HandlerSet) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.Security.CookieName)
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.renderError(c, err)
		return
	}

	c.SetCookie(h.cfg.Security.CookieName, "", -1, "/", "", h.cfg.Security.CookieSecure, true)
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

type forgotPasswordRequest struct {
	Email string `form:"email" json:"email" binding:"required,email"`
}

// ForgotPassword always answers the same way; the response never
// reveals whether the address belongs to an account. The issued token
// goes to the delivery collaborator, not to the caller.
func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "A valid email address is required."})
		return
	}

	token, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if token != "" {
		h.log.Debug().
			Str("email", req.Email).
			Str("token", token).
			Msg("password reset token issued")
	}

	c.JSON(http.StatusOK, flash("info", "If the address belongs to an account, reset instructions have been sent."))
}

type resetPasswordRequest struct {
	Token    string `form:"token" json:"token" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Confirm  string `form:"confirm" json:"confirm" binding:"required"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Token, password and confirmation are required."})
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Token:    req.Token,
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, flash("success", "Password updated. You can now sign in."))
}

func (h HandlerSet) Me(c *gin.Context) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": toAccountResponse(account)})
}

type changePasswordRequest struct {
	Current string `form:"current" json:"current" binding:"required"`
	New     string `form:"new" json:"new" binding:"required"`
	Confirm string `form:"confirm" json:"confirm" binding:"required"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "Current and new passwords are required."})
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), service.ChangePasswordInput{
		AccountID: account.ID,
		Current:   req.Current,
		New:       req.New,
		Confirm:   req.Confirm,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, flash("success", "Password updated."))
}
