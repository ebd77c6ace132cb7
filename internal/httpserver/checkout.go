package httpserver

import (
	"errors"
	"net/http"

	"diamond-storefront/internal/domain"
	checkoutsvc "diamond-storefront/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

func checkoutHandler(svc *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CartID   string           `json:"cartId"`
			Snapshot *domain.CartView `json:"cart"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		checkoutURL, err := svc.Checkout(c.Request.Context(), req.CartID, req.Snapshot)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"checkoutUrl": checkoutURL})
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	var unavailable *checkoutsvc.UnavailableError
	switch {
	case errors.As(err, &unavailable):
		c.JSON(http.StatusConflict, gin.H{
			"error":       "Some items are no longer available",
			"unavailable": unavailable.MerchandiseIDs,
		})
	case errors.Is(err, domain.ErrCartEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
