package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront-service/internal/service"
)

type Services struct {
	Users     *service.UserService
	Products  *service.ProductService
	Discounts *service.DiscountService
	Orders    *service.OrderService
	Tokens    *service.TokenIssuer
}

// NewRouter builds the echo instance with middleware and every route of the service.
func NewRouter(name string, svc Services, limit RateLimit) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.Use(metricsMiddleware)
	e.Use(rateLimiter(limit))

	users := NewUserHandler(svc.Users)
	products := NewProductHandler(svc.Products)
	admin := NewAdminHandler(svc.Users, svc.Discounts)
	orders := NewOrderHandler(svc.Orders)

	auth := authenticate(svc.Tokens.Secret(), svc.Users)

	// Routes
	e.POST("/auth/register", users.Register)
	e.POST("/auth/token", users.Login)
	e.POST("/auth/logout", users.Logout, auth...)

	productGroup := e.Group("/products", auth...)
	productGroup.GET("/list", products.ListProducts)
	productGroup.GET("/get/:id", products.GetProduct)
	productGroup.POST("/edits", products.Edit, requireAdmin)

	userGroup := e.Group("/user", auth...)
	userGroup.GET("/me", users.Me)
	userGroup.PUT("/password_change", users.ChangePassword)
	userGroup.PATCH("/modify_details", users.ModifyDetails)

	adminGroup := e.Group("/admin", append(auth, requireAdmin)...)
	adminGroup.GET("/list_of_users", admin.ListUsers)
	adminGroup.POST("/users/action", admin.UserAction)
	adminGroup.POST("/discounts/action", admin.DiscountAction)
	adminGroup.GET("/discounts/:id", admin.GetDiscount)

	orderGroup := e.Group("/orders", auth...)
	orderGroup.POST("/action", orders.Action)
	orderGroup.GET("/list_of_orders", orders.ListAllOrders, requireAdmin)
	orderGroup.GET("/price/:id", orders.GetOrderPrice)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"service": name,
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
