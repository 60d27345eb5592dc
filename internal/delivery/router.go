package delivery

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterOptions struct {
	CORSOrigins []string
}

// NewRouter builds the gin engine with every storefront route mounted.
func NewRouter(h *Handler, opts RouterOptions, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	RegisterRoutes(r, h, logger)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler, logger *logrus.Logger) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories", h.Categories)

		// Signed by the payment provider, not by a user token.
		api.POST("/webhooks/stripe", h.StripeWebhook)
	}

	auth := api.Group("", AuthMiddleware(h.auth, logger))
	{
		auth.GET("/user/profile", h.Profile)

		auth.POST("/create-checkout-session", h.CreateCheckoutSession)
		auth.POST("/verify-payment", h.VerifyPayment)

		auth.POST("/orders", h.PlaceOrder)
		auth.GET("/orders/user", h.MyOrders)
		auth.GET("/orders/:id", h.GetOrder)
	}

	admin := auth.Group("/admin", RequireAdmin(logger))
	{
		admin.GET("/orders", h.AdminListOrders)
		admin.PUT("/orders/:id", h.AdminUpdateOrder)

		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)

		admin.GET("/users", h.ListUsers)
	}
}
