package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"school/api/internal/config"
	"school/api/internal/middleware"
	"school/api/internal/models"
	"school/api/internal/service"
)

// defaultLanding is where a successful login sends the client when no
// safe "next" destination was supplied. The view collaborator owns the
// route itself.
const defaultLanding = "/"

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	auth      *service.AuthService
	accounts  *service.AccountService
	schedules *service.ScheduleService
	tuitions  *service.TuitionService
	sessions  middleware.SessionReader
	reader    middleware.AccountReader
	db        *pgxpool.Pool
	cache     *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	auth *service.AuthService,
	accounts *service.AccountService,
	schedules *service.ScheduleService,
	tuitions *service.TuitionService,
	sessionReader middleware.SessionReader,
	accountReader middleware.AccountReader,
	db *pgxpool.Pool,
	cache *redis.Client,
) HandlerSet {
	return HandlerSet{
		log:       log,
		cfg:       cfg,
		auth:      auth,
		accounts:  accounts,
		schedules: schedules,
		tuitions:  tuitions,
		sessions:  sessionReader,
		reader:    accountReader,
		db:        db,
		cache:     cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.GET("/login", h.LoginForm)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.POST("/forgot-password", h.ForgotPassword)
	auth.POST("/reset-password", h.ResetPassword)

	session := v1.Group("/auth")
	session.Use(middleware.Auth(h.cfg, h.sessions, h.reader))
	session.GET("/me", h.Me)
	session.POST("/change-password", h.ChangePassword)

	accounts := v1.Group("/accounts")
	accounts.Use(
		middleware.Auth(h.cfg, h.sessions, h.reader),
		middleware.RequireRoles(models.RoleDirector),
	)
	accounts.GET("", h.ListAccounts)
	accounts.POST("", h.CreateAccount)
	accounts.PUT("/:id", h.UpdateAccount)
	accounts.DELETE("/:id", h.DeleteAccount)

	schedules := v1.Group("/schedules")
	schedules.Use(middleware.Auth(h.cfg, h.sessions, h.reader))
	schedules.GET("", h.ListSchedules)
	scheduleAdmin := schedules.Group("")
	scheduleAdmin.Use(middleware.RequireRoles(models.RoleDirector))
	scheduleAdmin.POST("", h.CreateSchedule)
	scheduleAdmin.PUT("/:id", h.UpdateSchedule)
	scheduleAdmin.DELETE("/:id", h.DeleteSchedule)

	tuitions := v1.Group("/tuition-tiers")
	tuitions.Use(middleware.Auth(h.cfg, h.sessions, h.reader))
	tuitions.GET("", h.ListTuitionTiers)
	tuitionAdmin := tuitions.Group("")
	tuitionAdmin.Use(middleware.RequireRoles(models.RoleDirector))
	tuitionAdmin.POST("", h.CreateTuitionTier)
	tuitionAdmin.PUT("/:id", h.UpdateTuitionTier)
	tuitionAdmin.DELETE("/:id", h.DeleteTuitionTier)
}

// flash mirrors the one-shot status messages the view collaborator
// renders: a severity plus text.
func flash(severity, message string) gin.H {
	return gin.H{"severity": severity, "message": message}
}

// renderError maps the service error taxonomy onto responses. Wording
// for credential and token failures stays generic; nothing confirms or
// denies that an account exists.
func (h HandlerSet) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": "Invalid email or password."})
	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_inactive", "message": "This account is inactive."})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Authentication required."})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Access restricted."})
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_email", "message": "This email address is already registered."})
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_token", "message": "The reset link is invalid or has expired. Request a new one."})
	case errors.Is(err, service.ErrPasswordMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password_mismatch", "message": "Passwords do not match."})
	case errors.Is(err, service.ErrMalformedInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Not found."})
	case errors.Is(err, service.ErrBootstrapProtected):
		c.JSON(http.StatusForbidden, gin.H{"error": "bootstrap_protected", "message": "The default account cannot be changed or deleted."})
	case errors.Is(err, service.ErrSelfDelete):
		c.JSON(http.StatusBadRequest, gin.H{"error": "self_delete", "message": "You cannot delete your own account."})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Something went wrong. Try again later."})
	}
}
