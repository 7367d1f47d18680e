package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"subtracka/internal/auth"
	"subtracka/internal/gateways/http/mw"
	"subtracka/internal/usecase"
)

func setupRouter(r *gin.Engine, u UseCases, tm *auth.TokenManager, limiter mw.Limiter, webhookSecret string, log *slog.Logger) {
	r.HandleMethodNotAllowed = true

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	requireAuth := mw.RequireAuth(tm)

	v1 := r.Group("api/v1/")

	public := v1.Group("")
	if limiter != nil {
		public.Use(mw.RateLimit(limiter, log))
	}
	setupAuth(public, u, requireAuth)
	setupUsers(public, u, requireAuth)
	setupSubscriptions(public, u, requireAuth)

	// webhook deliveries authenticate with the shared secret and are never
	// rate limited, throttling the queue would stall reminders
	setupWebhooks(v1, u, webhookSecret, log)
}

// abortError translates use case sentinels into HTTP status codes.
func abortError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, usecase.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrUsernameTaken),
		errors.Is(err, usecase.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrWrongPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrForbidden),
		errors.Is(err, usecase.ErrInvalidResetToken),
		errors.Is(err, usecase.ErrInvalidRefreshToken):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrInvalidSubscription),
		errors.Is(err, usecase.ErrInvalidID),
		errors.Is(err, usecase.ErrMissingRenewalDate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrDeliveryFailed),
		errors.Is(err, usecase.ErrSchedulingFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func acceptsJSON(h string) bool {
	if h == "" || h == "*/*" {
		return true
	}
	parts := strings.Split(h, ",")
	for _, p := range parts {
		mt := strings.TrimSpace(strings.SplitN(p, ";", 2)[0])
		if mt == "application/json" || mt == "*/*" {
			return true
		}
	}
	return false
}

func requireAcceptJSON(c *gin.Context) bool {
	if acceptsJSON(c.GetHeader("Accept")) {
		return true
	}
	c.JSON(http.StatusNotAcceptable, gin.H{"error": "Accept application/json only"})
	return false
}
