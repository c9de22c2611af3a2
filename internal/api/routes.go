package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/auth"
)

const serviceName = "storefront-service"

type Handlers struct {
	Products   *ProductHandler
	Categories *CategoryHandler
	Reviews    *ReviewHandler
	Cart       *CartHandler
	Orders     *OrderHandler
	Users      *UserHandler
	Admin      *AdminHandler
	Streams    *StreamHandler
}

// RegisterRoutes mounts every route on e. requireAuth verifies the caller's
// token; admin routes additionally require the admin role.
func RegisterRoutes(e *echo.Echo, h Handlers, requireAuth echo.MiddlewareFunc) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.GET("/products", h.Products.ListProducts)
	e.GET("/products/featured", h.Products.FeaturedProducts)
	e.GET("/products/stream", h.Streams.Products)
	e.GET("/products/:id", h.Products.GetProduct)
	e.GET("/products/:id/reviews", h.Reviews.ListReviews)
	e.POST("/products/:id/reviews", h.Reviews.AddReview, requireAuth)
	e.GET("/categories", h.Categories.ListCategories)
	e.GET("/categories/stream", h.Streams.Categories)
	e.GET("/media/*", h.Admin.ServeMedia)

	e.POST("/auth/signup", h.Users.SignUp)
	e.POST("/auth/signin", h.Users.SignIn)
	e.POST("/auth/signout", h.Users.SignOut, requireAuth)
	e.GET("/me", h.Users.Me, requireAuth)
	e.PUT("/me/addresses", h.Users.SaveShippingAddresses, requireAuth)

	cart := e.Group("/cart", CartSession)
	cart.GET("", h.Cart.GetCart)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:productId", h.Cart.UpdateItem)
	cart.DELETE("/items/:productId", h.Cart.RemoveItem)

	orders := e.Group("/orders", requireAuth)
	orders.POST("", h.Orders.PlaceOrder, CartSession)
	orders.GET("", h.Orders.ListMyOrders)
	orders.GET("/:id", h.Orders.GetOrder)
	orders.POST("/:id/cancel", h.Orders.CancelOrder)
	orders.POST("/:id/pay", h.Orders.StartPayment)
	orders.GET("/:id/stream", h.Streams.Order)
	e.POST("/payments/verify", h.Orders.VerifyPayment, requireAuth, CartSession)

	admin := e.Group("/admin", requireAuth, auth.RequireAdmin)
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.POST("/uploads", h.Admin.UploadImage)
	admin.POST("/products", h.Products.CreateProduct)
	admin.PUT("/products/:id", h.Products.UpdateProduct)
	admin.DELETE("/products/:id", h.Products.DeleteProduct)
	admin.GET("/categories", h.Categories.ListAllCategories)
	admin.POST("/categories", h.Categories.CreateCategory)
	admin.PUT("/categories/:id", h.Categories.UpdateCategory)
	admin.PATCH("/categories/:id/active", h.Categories.SetCategoryActive)
	admin.DELETE("/categories/:id", h.Categories.DeleteCategory)
	admin.GET("/orders", h.Orders.ListAllOrders)
	admin.PATCH("/orders/:id/status", h.Orders.UpdateOrderStatus)
}
