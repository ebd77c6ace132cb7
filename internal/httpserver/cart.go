package httpserver

import (
	"errors"
	"net/http"

	"diamond-storefront/internal/domain"
	cartsvc "diamond-storefront/internal/service/cart"
	"diamond-storefront/internal/service/cartview"
	"github.com/gin-gonic/gin"
)

func cartResponse(record *domain.CartRecord) gin.H {
	return gin.H{
		"cartId": record.ID,
		"cart":   cartview.Compile(record),
	}
}

func createCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CartID string `json:"cartId"`
		}
		// Body is optional; an empty request creates a cart with a fresh ID.
		_ = c.ShouldBindJSON(&req)

		record, err := svc.Create(c.Request.Context(), req.CartID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(record))
	}
}

func getCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Query("cartId")
		if cartID == "" {
			cartID = c.Query("id")
		}
		if cartID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cartId is required"})
			return
		}

		record, err := svc.Get(c.Request.Context(), cartID)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(record))
	}
}

func addItemHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.AddItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		record, err := svc.AddItem(c.Request.Context(), in)
		if errors.Is(err, domain.ErrDuplicateExternal) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This item is already in your cart and is currently on hold."})
			return
		}
		if errors.Is(err, cartsvc.ErrProvision) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare item for checkout"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cartResponse(record))
	}
}

func updateItemHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CartID   string `json:"cartId"`
			LineID   string `json:"lineId"`
			Quantity int    `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.CartID == "" || req.LineID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cartId and lineId are required"})
			return
		}

		record, err := svc.UpdateQuantity(c.Request.Context(), req.CartID, req.LineID, req.Quantity)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart or line not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(record))
	}
}

func removeItemHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CartID string `json:"cartId"`
			LineID string `json:"lineId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.CartID == "" || req.LineID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cartId and lineId are required"})
			return
		}

		record, err := svc.RemoveItem(c.Request.Context(), req.CartID, req.LineID)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart or line not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(record))
	}
}
