package router

import (
	"techshop/internal/middleware"
	"techshop/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Account  *rest.AccountHandler
	Product  *rest.ProductHandler
	Category *rest.CategoryHandler
	Cart     *rest.CartHandler
	Orders   *rest.OrdersHandler
	Payments *rest.PaymentsHandler
	Review   *rest.ReviewHandler
	Message  *rest.MessageHandler
}

// Register mounts the whole HTTP surface: the public storefront routes, the
// authenticated customer routes, the admin back office and /metrics.
func Register(e *echo.Echo, h Handlers, store middleware.TokenStore) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")

	// Public.
	api.POST("/accounts/register", h.Account.Register)
	api.POST("/accounts/login", h.Account.Login)
	api.POST("/accounts/password/forgot", h.Account.ForgotPassword)
	api.POST("/accounts/password/verify", h.Account.VerifyResetCode)
	api.POST("/accounts/password/reset", h.Account.ResetPassword)

	api.GET("/products", h.Product.Browse)
	api.GET("/products/newest", h.Product.GetNewest)
	api.GET("/products/search", h.Product.Search)
	api.GET("/products/:id", h.Product.GetProduct)
	api.GET("/products/:id/reviews", h.Review.ListByProduct)
	api.GET("/categories", h.Category.ListCategories)
	api.GET("/categories/:id", h.Category.GetCategory)
	api.GET("/categories/:id/products", h.Product.GetByCategory)

	// Gateway redirect target; authenticated by its signed parameters.
	api.GET("/orders/callback", h.Payments.Callback)

	// Authenticated customer routes.
	auth := api.Group("", middleware.AuthWithStore(store))
	auth.POST("/accounts/logout", h.Account.Logout)
	auth.GET("/accounts/me", h.Account.GetProfile)
	auth.PUT("/accounts/me", h.Account.UpdateProfile)
	auth.PUT("/accounts/me/avatar", h.Account.UpdateAvatar)
	auth.PUT("/accounts/me/password", h.Account.ChangePassword)

	auth.GET("/cart", h.Cart.GetCart)
	auth.POST("/cart/items", h.Cart.AddItem)
	auth.PUT("/cart/items/:id", h.Cart.UpdateItem)
	auth.DELETE("/cart/items/:id", h.Cart.RemoveItem)

	auth.POST("/orders", h.Orders.CreateOrder)
	auth.GET("/orders", h.Orders.ListOrders)
	auth.GET("/orders/:id", h.Orders.GetOrder)
	auth.PUT("/orders/:id/confirm", h.Orders.ConfirmOrder)
	auth.GET("/orders/:id/payment", h.Payments.GetOrderPayment)

	auth.POST("/payments", h.Payments.CreatePayment)
	auth.GET("/payments", h.Payments.ListPayments)

	auth.POST("/reviews", h.Review.CreateReview)
	auth.GET("/reviews/mine", h.Review.GetMine)
	auth.PUT("/reviews/:id", h.Review.UpdateReview)
	auth.DELETE("/reviews/:id", h.Review.DeleteReview)

	auth.POST("/messages", h.Message.SendToSupport)
	auth.GET("/messages", h.Message.GetSupportConversation)
	auth.GET("/messages/new", h.Message.Poll)

	// Back office.
	admin := e.Group("/admin", middleware.AuthWithStore(store), middleware.AdminOnly)
	admin.GET("/accounts", h.Account.ListAccounts)
	admin.PUT("/accounts/:id/active", h.Account.SetAccountActive)
	admin.PUT("/accounts/:id/role", h.Account.SetAccountRole)
	admin.DELETE("/accounts/:id", h.Account.DeleteAccount)

	admin.POST("/products", h.Product.CreateProduct)
	admin.PUT("/products/:id", h.Product.UpdateProduct)
	admin.PUT("/products/:id/image", h.Product.UpdateImage)
	admin.PUT("/products/:id/listed", h.Product.SetListed)
	admin.DELETE("/products/:id", h.Product.DeleteProduct)

	admin.POST("/categories", h.Category.CreateCategory)
	admin.PUT("/categories/:id", h.Category.UpdateCategory)
	admin.DELETE("/categories/:id", h.Category.DeleteCategory)

	admin.GET("/orders", h.Orders.ListAllOrders)
	admin.PUT("/orders/:id/status", h.Orders.UpdateOrderStatus)
	admin.DELETE("/orders/:id", h.Orders.CancelOrder)

	admin.PUT("/payments/:id/confirm", h.Payments.ConfirmPayment)

	admin.DELETE("/reviews/:id", h.Review.DeleteAnyReview)

	admin.POST("/messages", h.Message.Send)
	admin.GET("/messages/partners", h.Message.ListPartners)
	admin.GET("/messages/:id", h.Message.GetConversation)
}
