package router

import (
	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/config"
	"github.com/quonpass/quonpass-backend/internal/app/controller"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/middleware"
)

// Controllers groups every HTTP handler the router mounts.
type Controllers struct {
	Auth      *controller.AuthController
	User      *controller.UserController
	Store     *controller.StoreController
	Product   *controller.ProductController
	Target    *controller.TargetController
	Sales     *controller.SalesController
	Dashboard *controller.DashboardController
	Health    *controller.HealthController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.controllers.Health.Health)

	v1 := router.Group("/api/v1")
	v1.GET("/health", r.controllers.Health.Health)

	auth := v1.Group("/auth")
	{
		auth.POST("/login", r.controllers.Auth.Login)
		auth.POST("/refresh", r.controllers.Auth.RefreshToken)
		auth.POST("/logout", r.authMiddleware.Authenticate(), r.controllers.Auth.Logout)
		auth.GET("/me", r.authMiddleware.Authenticate(), r.controllers.Auth.GetMe)
	}

	// Every role may read; writes are narrowed per group below.
	api := v1.Group("")
	api.Use(r.authMiddleware.Authenticate())

	writers := r.authMiddleware.RequireRole(model.RoleAdmin, model.RoleManager)
	anyRole := r.authMiddleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	adminOnly := r.authMiddleware.RequireRole(model.RoleAdmin)

	targets := api.Group("/targets")
	{
		t := r.controllers.Target

		targets.GET("", t.ListAnnualTargets)
		targets.POST("", writers, t.CreateAnnualTarget)
		targets.GET("/:id", t.GetAnnualTarget)
		targets.PUT("/:id", writers, t.UpdateAnnualTarget)
		targets.DELETE("/:id", writers, t.DeleteAnnualTarget)
		targets.POST("/:id/distribute", writers, t.DistributeAnnualTarget)
		targets.GET("/:id/allocation", t.GetAllocation)

		targets.GET("/monthly", t.ListMonthlyTargets)
		targets.POST("/monthly", writers, t.CreateMonthlyTarget)
		targets.GET("/monthly/:id", t.GetMonthlyTarget)
		targets.PUT("/monthly/:id", writers, t.UpdateMonthlyTarget)
		targets.DELETE("/monthly/:id", writers, t.DeleteMonthlyTarget)

		targets.GET("/weekly", t.ListWeeklyTargets)
		targets.POST("/weekly", writers, t.CreateWeeklyTarget)
		targets.PUT("/weekly/:id", writers, t.UpdateWeeklyTarget)
		targets.DELETE("/weekly/:id", writers, t.DeleteWeeklyTarget)

		targets.GET("/daily", t.ListDailyTargets)
		targets.POST("/daily", writers, t.CreateDailyTarget)
		targets.PUT("/daily/:id", writers, t.UpdateDailyTarget)
		targets.DELETE("/daily/:id", writers, t.DeleteDailyTarget)
	}

	stores := api.Group("/stores")
	{
		s := r.controllers.Store

		stores.GET("", s.ListStores)
		stores.GET("/:id", s.GetStore)
		stores.POST("", writers, s.CreateStore)
		stores.PUT("/:id", writers, s.UpdateStore)
		stores.PATCH("/:id/status", writers, s.ChangeStatus)
		stores.DELETE("/:id", adminOnly, s.DeleteStore)
	}

	products := api.Group("/products")
	{
		p := r.controllers.Product

		products.GET("", p.ListProducts)
		products.GET("/:id", p.GetProduct)
		products.POST("", writers, p.CreateProduct)
		products.POST("/upload-url", writers, p.CreateUploadURL)
		products.PUT("/:id", writers, p.UpdateProduct)
		products.DELETE("/:id", writers, p.DeleteProduct)
	}

	sales := api.Group("/sales")
	{
		s := r.controllers.Sales

		sales.GET("", s.ListSales)
		sales.GET("/:id", s.GetSale)
		sales.POST("", writers, s.CreateSale)
		sales.POST("/import", anyRole, s.ImportSales)
		sales.DELETE("/:id", writers, s.DeleteSale)
	}

	api.GET("/dashboard/progress", r.controllers.Dashboard.GetProgress)

	users := api.Group("/users")
	users.Use(adminOnly)
	{
		u := r.controllers.User

		users.GET("", u.ListUsers)
		users.GET("/:id", u.GetUser)
		users.POST("", u.CreateUser)
		users.PUT("/:id", u.UpdateUser)
		users.DELETE("/:id", u.DeleteUser)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
