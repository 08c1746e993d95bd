package container

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apimw "github.com/jordanlanch/fieldsales/pkg/api/middleware"
	custommiddleware "github.com/jordanlanch/fieldsales/pkg/middleware"
)

// Login attempts per minute per client IP
const (
	loginRatePerMinute = 5
	loginBurst         = 2
)

func (c *Container) newLimiter(perMinute, burst int) *custommiddleware.RateLimiter {
	l := custommiddleware.NewRateLimiter(perMinute, burst)
	c.limiters = append(c.limiters, l)
	return l
}

// Middleware installs the global middleware chain on e
func (c *Container) Middleware(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(c.Metrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(c.Config.CORSAllowedOrigins)))
	headers := custommiddleware.DefaultSecurityHeadersConfig()
	if c.Config.IsProduction() {
		headers = custommiddleware.ProductionSecurityHeadersConfig()
	}
	e.Use(custommiddleware.SecurityHeaders(headers))
	e.Use(middleware.Gzip())

	if c.Config.RateLimitRequestsPerMinute > 0 {
		e.Use(c.newLimiter(c.Config.RateLimitRequestsPerMinute, c.Config.RateLimitBurst).RateLimitMiddleware())
	}
}

// Routes registers every API route on e
func (c *Container) Routes(e *echo.Echo) {
	e.GET("/health", c.HealthHandler.Check)

	v1 := e.Group("/api/v1")
	v1.GET("/health", c.HealthHandler.Check)
	v1.GET("/ping", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})

	authed := apimw.JWTMiddlewareWithBlacklist(c.Config.JWTSecret, c.TokenBlacklist)
	adminOnly := custommiddleware.RequireAdmin(c.SalesReps)

	// Auth
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", c.AuthHandler.Login, c.newLimiter(loginRatePerMinute, loginBurst).RateLimitMiddleware())
	authGroup.POST("/logout", c.AuthHandler.Logout, authed)
	authGroup.GET("/me", c.AuthHandler.Me, authed)

	// Caller-scoped outlets
	outlets := v1.Group("/outlets", authed)
	outlets.GET("", c.OutletHandler.List)
	outlets.GET("/:uid", c.OutletHandler.Get)
	outlets.PATCH("/:uid", c.OutletHandler.Patch)

	// Reference data: reads for everyone signed in, writes for admins
	ref := v1.Group("", authed)
	ref.GET("/regions", c.ReferenceHandler.ListRegions)
	ref.GET("/regions/:id", c.ReferenceHandler.GetRegion)
	ref.POST("/regions", c.ReferenceHandler.CreateRegion, adminOnly)
	ref.PUT("/regions/:id", c.ReferenceHandler.UpdateRegion, adminOnly)
	ref.DELETE("/regions/:id", c.ReferenceHandler.DeleteRegion, adminOnly)

	ref.GET("/areas", c.ReferenceHandler.ListAreas)
	ref.GET("/areas/:id", c.ReferenceHandler.GetArea)
	ref.POST("/areas", c.ReferenceHandler.CreateArea, adminOnly)
	ref.PUT("/areas/:id", c.ReferenceHandler.UpdateArea, adminOnly)
	ref.DELETE("/areas/:id", c.ReferenceHandler.DeleteArea, adminOnly)

	ref.GET("/territories", c.ReferenceHandler.ListTerritories)
	ref.GET("/territories/:id", c.ReferenceHandler.GetTerritory)
	ref.POST("/territories", c.ReferenceHandler.CreateTerritory, adminOnly)
	ref.PUT("/territories/:id", c.ReferenceHandler.UpdateTerritory, adminOnly)
	ref.DELETE("/territories/:id", c.ReferenceHandler.DeleteTerritory, adminOnly)

	ref.GET("/distributors", c.ReferenceHandler.ListDistributors)
	ref.GET("/distributors/:id", c.ReferenceHandler.GetDistributor)
	ref.POST("/distributors", c.ReferenceHandler.CreateDistributor, adminOnly)
	ref.PUT("/distributors/:id", c.ReferenceHandler.UpdateDistributor, adminOnly)
	ref.DELETE("/distributors/:id", c.ReferenceHandler.DeleteDistributor, adminOnly)

	// Admin
	admin := v1.Group("/admin", authed, adminOnly)

	admin.GET("/outlets", c.AdminOutletHandler.List)
	admin.POST("/outlets", c.AdminOutletHandler.Create)
	admin.POST("/outlets/import", c.AdminOutletHandler.Import)
	admin.POST("/outlets/import/s3", c.AdminOutletHandler.ImportFromS3)
	admin.GET("/outlets/:id", c.AdminOutletHandler.Get)
	admin.PUT("/outlets/:id", c.AdminOutletHandler.Update)
	admin.DELETE("/outlets/:id", c.AdminOutletHandler.Delete)

	admin.POST("/assignments/bulk", c.AssignmentHandler.BulkAssign)
	admin.POST("/assignments/bulk-unassign", c.AssignmentHandler.BulkUnassign)

	admin.GET("/sales-reps", c.SalesRepHandler.List)
	admin.POST("/sales-reps", c.SalesRepHandler.Create)
	admin.GET("/sales-reps/:id", c.SalesRepHandler.Get)
	admin.PUT("/sales-reps/:id", c.SalesRepHandler.Update)
	admin.DELETE("/sales-reps/:id", c.SalesRepHandler.Delete)
	admin.GET("/sales-reps/:id/outlets/count", c.AssignmentHandler.Count)
}
