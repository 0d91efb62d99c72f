package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"  // Echo web framework handles routing
	"github.com/redis/go-redis/v9" // optional Redis client shared by cache and rate limiter

	"github.com/iliyamo/resource-reservation/internal/config"     // cache and rate limit settings
	"github.com/iliyamo/resource-reservation/internal/handler"    // handlers implementing each endpoint
	"github.com/iliyamo/resource-reservation/internal/middleware" // JWT authentication, role checks, cache and rate limit
	"github.com/iliyamo/resource-reservation/internal/model"      // role names
)

// Deps carries everything the route table needs.  Redis may be nil, in
// which case caching and rate limiting pass requests straight through.
type Deps struct {
	Bookings  *handler.BookingHandler
	Resources *handler.ResourceHandler
	Health    echo.HandlerFunc
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// RegisterRoutes registers the health check and the public browse
// endpoints.  Catalogue reads are cached in Redis; availability is not,
// since it changes with every booking.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health)

	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	e.GET("/v1/slots", d.Resources.ListSlots)
	e.GET("/v1/resources", d.Resources.ListResources, cache)
	e.GET("/v1/resources/:id", d.Resources.GetResource, cache)
	e.GET("/v1/resources/:id/availability", d.Resources.Availability)
}

// RegisterBookings registers the endpoints that need a valid access token.
// Both roles may book; the engine decides who may approve, cancel or view
// a given booking.  Booking creation is rate limited per user.
func RegisterBookings(e *echo.Echo, d Deps) {
	g := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleStudent, model.RoleAdmin),
	)
	g.POST("/bookings", d.Bookings.Create, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	g.GET("/bookings/mine", d.Bookings.Mine)
	g.GET("/bookings/:id", d.Bookings.Get)
	g.PATCH("/bookings/:id", d.Bookings.Transition)
	g.POST("/bookings/:id/check-in", d.Bookings.CheckIn)
}

// RegisterAdmin registers the admin-only endpoints: the approval queue and
// resource management.  Successful resource writes purge the cached
// catalogue.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/bookings", d.Bookings.AdminList)

	purge := middleware.PurgeCacheOnSuccess(d.Cache, d.Redis)
	g.POST("/resources", d.Resources.CreateResource, purge)
	g.PATCH("/resources/:id", d.Resources.UpdateResource, purge)
	g.DELETE("/resources/:id", d.Resources.DeleteResource, purge)
}

// Register wires every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	RegisterBookings(e, d)
	RegisterAdmin(e, d)
}
