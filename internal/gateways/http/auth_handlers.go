package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"subtracka/internal/gateways/http/mw"
)

const (
	refreshCookie    = "refresh_token"
	refreshCookieTTL = 24 * time.Hour
)

func setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, token, int(refreshCookieTTL/time.Second), "/api/v1/auth", "", false, true)
}

func clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, "", -1, "/api/v1/auth", "", false, true)
}

func setupAuth(r *gin.RouterGroup, u UseCases, requireAuth gin.HandlerFunc) {
	grp := r.Group("/auth")

	grp.POST("/sign-up", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		var input SignUpInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		sess, err := u.Auth.SignUp(c, *input.Username, *input.Email, *input.Password)
		if err != nil {
			abortError(c, err)
			return
		}
		setRefreshCookie(c, sess.RefreshToken)
		c.JSON(http.StatusCreated, newSessionResponse(sess))
	})

	grp.POST("/sign-in", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		var input SignInInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		sess, err := u.Auth.SignIn(c, *input.Email, *input.Password)
		if err != nil {
			abortError(c, err)
			return
		}
		setRefreshCookie(c, sess.RefreshToken)
		c.JSON(http.StatusOK, newSessionResponse(sess))
	})

	grp.POST("/refresh", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		token, err := c.Cookie(refreshCookie)
		if err != nil || token == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "missing refresh token"})
			return
		}
		access, err := u.Auth.Refresh(c, token)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": access})
	})

	grp.POST("/sign-out", requireAuth, func(c *gin.Context) {
		if err := u.Auth.SignOut(c, mw.UserID(c)); err != nil {
			abortError(c, err)
			return
		}
		clearRefreshCookie(c)
		c.Status(http.StatusNoContent)
	})

	grp.POST("/forgot-password", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		var input ForgotPasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if err := u.Auth.ForgotPassword(c, *input.Email); err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "reset email queued"})
	})

	grp.POST("/reset-password/:id/:token", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid user id"})
			return
		}
		var input ResetPasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		if err := u.Auth.ResetPassword(c, strfmt.UUID(id.String()), c.Param("token"), *input.Password); err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	})
}
