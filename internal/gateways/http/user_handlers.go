package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"subtracka/internal/gateways/http/mw"
)

func setupUsers(r *gin.RouterGroup, u UseCases, requireAuth gin.HandlerFunc) {
	grp := r.Group("/users", requireAuth)

	grp.GET("", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		users, err := u.User.ListUsers(c)
		if err != nil {
			abortError(c, err)
			return
		}
		resp := make([]UserResponse, 0, len(users))
		for _, usr := range users {
			resp = append(resp, newUserResponse(usr))
		}
		c.JSON(http.StatusOK, resp)
	})

	grp.GET("/:id", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		user, err := u.User.GetUser(c, mw.UserID(c), id)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserResponse(user))
	})

	grp.PUT("/:id/username", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		var input UsernameUpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		user, err := u.User.UpdateUsername(c, mw.UserID(c), id, *input.Username)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserResponse(user))
	})

	grp.PUT("/:id/password", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		var input PasswordChangeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		if err := u.User.ChangePassword(c, mw.UserID(c), id, *input.CurrentPassword, *input.NewPassword); err != nil {
			abortError(c, err)
			return
		}
		// the session closed with the old password
		clearRefreshCookie(c)
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	})

	grp.DELETE("/:id", func(c *gin.Context) {
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		if err := u.User.DeleteUser(c, mw.UserID(c), id); err != nil {
			abortError(c, err)
			return
		}
		clearRefreshCookie(c)
		c.Status(http.StatusNoContent)
	})
}

// pathUUID parses the :id path segment, answering 422 itself on bad input.
func pathUUID(c *gin.Context) (strfmt.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid id"})
		return "", false
	}
	return strfmt.UUID(id.String()), true
}
