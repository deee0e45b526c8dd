package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"school/api/internal/config"
	"school/api/internal/models"
	"school/api/internal/repository"
	"school/api/internal/sessions"
)

// Keys under which the authenticated identity is stashed on the gin
// context.
const (
	ContextAccount = "current_account"
	ContextSession = "current_session"
)

// LoginPath is where anonymous callers are sent, carrying their
// intended destination as "next".
const LoginPath = "/api/v1/auth/login"

// SessionReader resolves a client token to its session.
type SessionReader interface {
	Get(ctx context.Context, token string) (sessions.Session, error)
}

// AccountReader loads the account a session points at.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (models.Account, error)
}

// Auth resolves the session cookie into an account. Missing or expired
// sessions, and sessions pointing at a since-deleted account, are all
// treated as anonymous and redirected to login.
func Auth(cfg *config.AppConfig, store SessionReader, accounts AccountReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.Security.CookieName)
		if err != nil || token == "" {
			redirectToLogin(c)
			return
		}

		session, err := store.Get(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, sessions.ErrSessionNotFound) {
				redirectToLogin(c)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), session.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				redirectToLogin(c)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}

		if !account.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "account_inactive",
				"message": "This account is inactive.",
			})
			return
		}

		c.Set(ContextAccount, account)
		c.Set(ContextSession, session)

		c.Next()
	}
}

// CurrentAccount returns the authenticated account placed by Auth.
func CurrentAccount(c *gin.Context) (models.Account, bool) {
	val, exists := c.Get(ContextAccount)
	if !exists {
		return models.Account{}, false
	}
	account, ok := val.(models.Account)
	return account, ok
}

func redirectToLogin(c *gin.Context) {
	next := url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, LoginPath+"?next="+next)
	c.Abort()
}
