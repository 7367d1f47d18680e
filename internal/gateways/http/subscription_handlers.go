package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"

	"subtracka/internal/entity"
	"subtracka/internal/gateways/http/mw"
	"subtracka/internal/usecase"
)

func setupSubscriptions(r *gin.RouterGroup, u UseCases, requireAuth gin.HandlerFunc) {
	grp := r.Group("/subscriptions", requireAuth)

	grp.POST("", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		if c.ContentType() != "" && c.ContentType() != "application/json" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Use application/json"})
			return
		}
		var input SubscriptionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		created, err := u.Sub.RegisterSub(c, input.toEntity(mw.UserID(c)))
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusCreated, newSubscriptionResponse(created))
	})

	grp.GET("", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		f := usecase.SubFilter{OrderBy: usecase.SubOrder(c.Query("order_by"))}
		if descStr := c.Query("desc"); descStr != "" {
			desc, err := strconv.ParseBool(descStr)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid desc"})
				return
			}
			f.Desc = desc
		}

		requester := mw.UserID(c)
		subs, err := u.Sub.ListSubsByUser(c, requester, requester, f)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSubscriptionList(subs))
	})

	grp.GET("/upcoming-renewals", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		subs, err := u.Sub.UpcomingRenewals(c, mw.UserID(c))
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSubscriptionList(subs))
	})

	grp.GET("/:id", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		sub, err := u.Sub.GetSubByID(c, mw.UserID(c), id)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSubscriptionResponse(sub))
	})

	grp.PUT("/:id", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		if c.ContentType() != "" && c.ContentType() != "application/json" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Use application/json"})
			return
		}
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		var input SubscriptionUpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		sub, err := u.Sub.GetSubByID(c, mw.UserID(c), id)
		if err != nil {
			abortError(c, err)
			return
		}
		sub.Name = *input.Name
		sub.Price = *input.Price
		if input.Currency != "" {
			sub.Currency = entity.Currency(input.Currency)
		}
		if input.Category != "" {
			sub.Category = entity.Category(input.Category)
		}
		if input.PaymentMethod != "" {
			sub.PaymentMethod = entity.PaymentMethod(input.PaymentMethod)
		}

		updated, err := u.Sub.UpdateSub(c, mw.UserID(c), sub)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSubscriptionResponse(updated))
	})

	grp.PUT("/:id/cancel", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		sub, err := u.Sub.CancelSub(c, mw.UserID(c), id)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSubscriptionResponse(sub))
	})

	grp.DELETE("/:id", func(c *gin.Context) {
		id, ok := pathUUID(c)
		if !ok {
			return
		}
		deleted, err := u.Sub.DeleteSub(c, mw.UserID(c), id)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSubscriptionResponse(deleted))
	})
}
