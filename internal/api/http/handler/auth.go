package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/recipebox-server/internal/api/http/middleware"
	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
	"github.com/dtroode/recipebox-server/internal/service"
)

// AuthService defines user registration and login operations.
type AuthService interface {
	Register(ctx context.Context, creds service.Credentials) (model.Account, error)
	Login(ctx context.Context, creds service.Credentials) (string, model.Account, error)
}

// CookieOptions control the token cookie set on login.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

// Auth handles registration, login and logout.
type Auth struct {
	authService AuthService
	cookie      CookieOptions
	logger      *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, cookie CookieOptions, logger *logger.Logger) *Auth {
	return &Auth{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

func (h *Auth) Register(c *gin.Context) {
	var creds service.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody})
		return
	}

	account, err := h.authService.Register(c.Request.Context(), creds)
	if err != nil {
		h.logger.Info("Auth handler: registration failed",
			"username", creds.Username,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    account.Summary(),
	})
}

func (h *Auth) Login(c *gin.Context) {
	var creds service.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msgInvalidBody})
		return
	}

	token, account, err := h.authService.Login(c.Request.Context(), creds)
	if err != nil {
		h.logger.Info("Auth handler: login failed",
			"username", creds.Username,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  account.Summary(),
	})
}

func (h *Auth) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
