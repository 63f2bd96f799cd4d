package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/osworks/servicedesk-api/api/swagger"
	"github.com/osworks/servicedesk-api/internal/handler"
	"github.com/osworks/servicedesk-api/internal/middleware"
	"github.com/osworks/servicedesk-api/internal/models"
	"github.com/osworks/servicedesk-api/internal/repository"
	"github.com/osworks/servicedesk-api/internal/service"
	"github.com/osworks/servicedesk-api/pkg/cache"
	"github.com/osworks/servicedesk-api/pkg/config"
	"github.com/osworks/servicedesk-api/pkg/database"
	"github.com/osworks/servicedesk-api/pkg/logger"
	corsmiddleware "github.com/osworks/servicedesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/osworks/servicedesk-api/pkg/middleware/requestid"
)

// @title Service Desk API
// @version 1.0.0
// @description Repair-shop service order management console
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	clientRepo := repository.NewClientRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Statuses.CacheTTL, logr, redisClient != nil)
	authService := service.NewAuthService(userRepo, roleRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	roleService := service.NewRoleService(roleRepo, validate, logr)
	userService := service.NewUserService(userRepo, roleRepo, validate, logr)
	catalogService := service.NewCatalogService(serviceRepo, validate, logr)
	clientService := service.NewClientService(clientRepo, serviceRepo, validate, logr)
	statusService := service.NewStatusService(statusRepo, cacheService, cfg.Statuses.CacheTTL, validate, logr)
	settingsService := service.NewSettingsService(settingsRepo, validate, logr)
	dashboardService := service.NewDashboardService(orderRepo, statusService, cacheService, cfg.Dashboard.CacheTTL, logr)

	notifier := service.NewLogNotifier(settingsRepo, logr)
	notificationService := service.NewNotificationService(notifier, service.NotificationConfig{
		Enabled:    cfg.Notify.Enabled,
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.MaxRetries,
		RetryDelay: cfg.Notify.RetryDelay,
	}, logr)

	orderService := service.NewOrderService(orderRepo, clientRepo, serviceRepo, statusService, notificationService, dashboardService, metricsService, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	orderHandler := handler.NewOrderHandler(orderService)
	statusHandler := handler.NewStatusHandler(statusService)
	clientHandler := handler.NewClientHandler(clientService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notificationService.Start(ctx)
	defer notificationService.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	authed.Use(middleware.Capabilities(roleService))

	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/register", middleware.Require(models.ResourceUsers, models.ActionCreate), authHandler.Register)

	orders := authed.Group("/os")
	{
		orders.GET("", middleware.Require(models.ResourceOrders, models.ActionRead), orderHandler.List)
		orders.POST("", middleware.Require(models.ResourceOrders, models.ActionCreate), orderHandler.Create)
		orders.GET("/export", middleware.Require(models.ResourceOrders, models.ActionRead), orderHandler.Export)
		orders.GET("/:id", middleware.Require(models.ResourceOrders, models.ActionRead), orderHandler.Get)
		orders.PUT("/:id", middleware.Require(models.ResourceOrders, models.ActionUpdate), orderHandler.Update)
		orders.PUT("/:id/status", middleware.Require(models.ResourceOrders, models.ActionUpdate), orderHandler.Transition)
		orders.GET("/:id/label", middleware.Require(models.ResourceOrders, models.ActionRead), orderHandler.Label)
	}

	statuses := authed.Group("/statuses")
	{
		statuses.GET("", middleware.Require(models.ResourceStatuses, models.ActionRead), statusHandler.List)
		statuses.POST("", middleware.Require(models.ResourceStatuses, models.ActionCreate), statusHandler.Create)
		statuses.GET("/:id", middleware.Require(models.ResourceStatuses, models.ActionRead), statusHandler.Get)
		statuses.PUT("/:id", middleware.Require(models.ResourceStatuses, models.ActionUpdate), statusHandler.Update)
		statuses.DELETE("/:id", middleware.Require(models.ResourceStatuses, models.ActionDelete), statusHandler.Delete)
	}

	clients := authed.Group("/clients")
	{
		clients.GET("", middleware.Require(models.ResourceClients, models.ActionRead), clientHandler.List)
		clients.POST("", middleware.Require(models.ResourceClients, models.ActionCreate), clientHandler.Create)
		clients.GET("/:id", middleware.Require(models.ResourceClients, models.ActionRead), clientHandler.Get)
		clients.PUT("/:id", middleware.Require(models.ResourceClients, models.ActionUpdate), clientHandler.Update)
		clients.DELETE("/:id", middleware.Require(models.ResourceClients, models.ActionDelete), clientHandler.Delete)
	}

	services := authed.Group("/services")
	{
		services.GET("", middleware.Require(models.ResourceServices, models.ActionRead), catalogHandler.List)
		services.POST("", middleware.Require(models.ResourceServices, models.ActionCreate), catalogHandler.Create)
		services.GET("/:id", middleware.Require(models.ResourceServices, models.ActionRead), catalogHandler.Get)
		services.PUT("/:id", middleware.Require(models.ResourceServices, models.ActionUpdate), catalogHandler.Update)
		services.DELETE("/:id", middleware.Require(models.ResourceServices, models.ActionDelete), catalogHandler.Delete)
	}

	users := authed.Group("/users")
	{
		users.GET("", middleware.Require(models.ResourceUsers, models.ActionRead), userHandler.List)
		users.POST("", middleware.Require(models.ResourceUsers, models.ActionCreate), userHandler.Create)
		users.GET("/:id", middleware.Require(models.ResourceUsers, models.ActionRead), userHandler.Get)
		users.PUT("/:id", middleware.Require(models.ResourceUsers, models.ActionUpdate), userHandler.Update)
		users.DELETE("/:id", middleware.Require(models.ResourceUsers, models.ActionDelete), userHandler.Delete)
	}

	roles := authed.Group("/roles")
	{
		roles.GET("", middleware.Require(models.ResourceRoles, models.ActionRead), roleHandler.List)
		roles.POST("", middleware.Require(models.ResourceRoles, models.ActionCreate), roleHandler.Create)
		roles.GET("/:id", middleware.Require(models.ResourceRoles, models.ActionRead), roleHandler.Get)
		roles.PUT("/:id", middleware.Require(models.ResourceRoles, models.ActionUpdate), roleHandler.Update)
		roles.DELETE("/:id", middleware.Require(models.ResourceRoles, models.ActionDelete), roleHandler.Delete)
	}

	authed.GET("/dashboard/summary", middleware.Require(models.ResourceDashboard, models.ActionRead), dashboardHandler.Summary)

	settings := authed.Group("/settings")
	{
		settings.GET("/email", middleware.Require(models.ResourceAdminSettings, models.ActionRead), settingsHandler.GetEmail)
		settings.PUT("/email", middleware.Require(models.ResourceAdminSettings, models.ActionUpdate), settingsHandler.UpdateEmail)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
