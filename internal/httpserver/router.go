package httpserver

import (
	"context"
	"log"

	cartsvc "diamond-storefront/internal/service/cart"
	checkoutsvc "diamond-storefront/internal/service/checkout"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries the services the routes are built on.
type Deps struct {
	CartSvc     *cartsvc.Service
	CheckoutSvc *checkoutsvc.Service
	// Ping reports backing-store reachability for readiness checks. Nil
	// means the store has nothing to probe (in-memory).
	Ping func(context.Context) error
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ping))

	api := router.Group("/api")
	{
		api.POST("/internal-cart", createCartHandler(deps.CartSvc))
		api.GET("/internal-cart", getCartHandler(deps.CartSvc))
		api.POST("/internal-cart/items", addItemHandler(deps.CartSvc))
		api.PUT("/internal-cart/items", updateItemHandler(deps.CartSvc))
		api.DELETE("/internal-cart/items", removeItemHandler(deps.CartSvc))

		api.POST("/checkout", checkoutHandler(deps.CheckoutSvc))

		api.POST("/deposit-session/create-from-cart", createDepositSessionHandler(deps.CheckoutSvc))
		api.GET("/deposit-session/:sessionId", getDepositSessionHandler(deps.CheckoutSvc))
		api.POST("/deposit-session/:sessionId/checkout", depositCheckoutHandler(deps.CheckoutSvc))
	}

	return router
}
