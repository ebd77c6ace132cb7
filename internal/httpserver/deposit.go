package httpserver

import (
	"errors"
	"net/http"

	"diamond-storefront/internal/domain"
	checkoutsvc "diamond-storefront/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

func createDepositSessionHandler(svc *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CartID     string           `json:"cartId"`
			Snapshot   *domain.CartView `json:"cart"`
			CustomerID string           `json:"customerId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		session, err := svc.CreateDepositSession(c.Request.Context(), req.CartID, req.Snapshot, req.CustomerID)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id":          session.ID,
			"deposit_session_url": "/deposit-session/" + session.ID,
			"deposit_amount":      session.DepositAmount,
			"remaining_amount":    session.RemainingAmount,
			"total_amount":        session.TotalAmount,
			"currency_code":       session.CurrencyCode,
		})
	}
}

func getDepositSessionHandler(svc *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := svc.GetDepositSession(c.Request.Context(), c.Param("sessionId"))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Deposit session not found or expired"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load deposit session"})
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func depositCheckoutHandler(svc *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkoutURL, err := svc.DepositCheckout(c.Request.Context(), c.Param("sessionId"))
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Deposit session not found or expired"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create deposit checkout"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"checkoutUrl": checkoutURL})
	}
}
