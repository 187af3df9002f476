// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tickethub/internal/events"
	"tickethub/internal/notifications"
	"tickethub/internal/orders"
	"tickethub/internal/shared/config"
	"tickethub/internal/shared/database"
	"tickethub/internal/staff"
	"tickethub/internal/tiers"
	"tickethub/pkg/cache"
	"tickethub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	log      *logger.Logger
	producer notifications.LifecycleProducer

	// Shared across route groups for dependency injection.
	cacheService cache.Service
	eventService events.Service
	tierService  tiers.Service
	staffService staff.Service
	ledger       *tiers.Ledger
	orderRepo    orders.Repository
	sweep        *orders.SweepProcessor
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, log *logger.Logger, producer notifications.LifecycleProducer) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		log:      log,
		producer: producer,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.cacheService = cache.NewService(r.db.GetRedisClient())

	r.setupHealthRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Event routes must come first: orders and staff hang off the
		// event service and sales checker wiring below.
		r.setupEventRoutes(api)
		r.setupTierRoutes(api)
		r.setupStaffRoutes(api)
		r.setupOrderRoutes(api)
	}
}

// SweepProcessor returns the background sweep, started/stopped by main.
func (r *Router) SweepProcessor() *orders.SweepProcessor {
	return r.sweep
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tickethub-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tickethub-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		status := gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		}
		if r.sweep != nil {
			status["jobs"] = r.sweep.GetJobStatus()
		}
		c.JSON(http.StatusOK, status)
	})
}

// setupEventRoutes configures event management routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	r.eventService = events.NewService(eventRepo, r.cacheService, r.config.Redis.CacheTTL)

	eventController := events.NewController(r.eventService)
	events.SetupEventRoutes(rg, r.config, eventController)
}

// setupTierRoutes configures ticket tier routes
func (r *Router) setupTierRoutes(rg *gin.RouterGroup) {
	tierRepo := tiers.NewRepository(r.db.GetPostgreSQL())
	r.tierService = tiers.NewService(tierRepo, r.cacheService, r.config.Redis.AvailabilityTTL)
	r.ledger = tiers.NewLedger(r.db.GetPostgreSQL())

	tierController := tiers.NewController(r.tierService)
	tiers.SetupTierRoutes(rg, r.config, tierController)
}

// setupStaffRoutes configures staff hierarchy routes
func (r *Router) setupStaffRoutes(rg *gin.RouterGroup) {
	staffRepo := staff.NewRepository(r.db.GetPostgreSQL())
	r.staffService = staff.NewService(staffRepo, r.log)

	staffController := staff.NewController(r.staffService)
	staff.SetupStaffRoutes(rg, r.config, staffController)
}

// setupOrderRoutes configures order and ticket routes
func (r *Router) setupOrderRoutes(rg *gin.RouterGroup) {
	r.orderRepo = orders.NewRepository(r.db.GetPostgreSQL())

	// The payment-model lock needs to see completed sales.
	r.eventService.SetSalesChecker(r.orderRepo)

	orderService := orders.NewService(orders.ServiceDeps{
		Repo:             r.orderRepo,
		Ledger:           r.ledger,
		Gate:             r.eventService,
		Catalog:          r.tierService,
		Referrals:        r.staffService,
		Commission:       r.staffService,
		Producer:         r.producer,
		Logger:           r.log,
		CashHoldDuration: r.config.Hold.CashHoldDuration,
	})

	r.sweep = orders.NewSweepProcessor(orderService, &orders.SweepConfig{
		Interval: r.config.Hold.SweepInterval,
	})

	orderController := orders.NewController(orderService)
	orders.SetupOrderRoutes(rg, r.config, orderController)
}
