// Package routes defines HTTP routes for the booking service.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/trainease/booking-service/docs"
	"github.com/trainease/booking-service/internal/config"
	"github.com/trainease/booking-service/internal/handlers"
	"github.com/trainease/booking-service/internal/metrics"
	"github.com/trainease/booking-service/internal/middleware"
)

// Handlers groups the HTTP handlers wired into the router.
type Handlers struct {
	Users    *handlers.UserHandler
	Catalog  *handlers.CatalogHandler
	Bookings *handlers.BookingHandler
	Health   *handlers.HealthHandler
}

// Setup configures all HTTP routes for the application.
func Setup(router *gin.Engine, h Handlers, sessions middleware.SessionResolver, cfg *config.Config, m *metrics.Metrics) {
	router.Use(
		middleware.Metrics(m),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.CSRF(middleware.CSRFConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			SessionCookie:  handlers.SessionCookie,
		}),
		middleware.Session(sessions, handlers.SessionCookie),
	)

	router.GET("/health", h.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	users := router.Group("/api/user")
	{
		users.POST("/register", h.Users.Register)
		users.POST("/login", h.Users.Login)
		users.POST("/logout", h.Users.Logout)
		users.GET("/current", h.Users.Current)
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}

	trains := router.Group("/trains")
	{
		trains.GET("", h.Catalog.ListTrains)
		trains.GET("/:id", h.Catalog.GetTrain)
		trains.POST("", h.Catalog.CreateTrain)
		trains.PUT("/:id", h.Catalog.UpdateTrain)
		trains.DELETE("/:id", h.Catalog.DeleteTrain)
	}

	routes := router.Group("/api/routes")
	{
		routes.GET("", h.Catalog.ListRoutes)
		routes.GET("/train/:trainId", h.Catalog.ListRoutesByTrain)
		routes.GET("/:id", h.Catalog.GetRoute)
		routes.POST("", h.Catalog.CreateRoute)
		routes.PUT("/:id", h.Catalog.UpdateRoute)
		routes.DELETE("/:id", h.Catalog.DeleteRoute)
	}

	bookings := router.Group("/api/bookings")
	{
		bookings.GET("", h.Bookings.ListAll)
		bookings.POST("", h.Bookings.Create)
		bookings.GET("/user", h.Bookings.ListOwn)
		bookings.GET("/route/:routeId", h.Bookings.ListByRoute)
		bookings.GET("/:id", h.Bookings.Get)
		bookings.PUT("/:id", h.Bookings.Update)
		bookings.DELETE("/:id", h.Bookings.Delete)
		bookings.POST("/:id/cancel", h.Bookings.Cancel)
	}

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
