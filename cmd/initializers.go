package main

import (
	"fmt"
	"net/http"

	"oeecore/app/handler"
	"oeecore/app/router"
	"oeecore/internal/service"
	"oeecore/pkg/config"
	"oeecore/pkg/logger"
	queueasynq "oeecore/pkg/queue/asynq"
	mysqlstore "oeecore/pkg/store/mysql"
	redisstore "oeecore/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.Sync()
		logger.InfoCtx(app.ctx, "Logging system has been closed")
	})
	return nil
}

// initMySQL initializes MySQL
func (app *Application) initMySQL() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		app.config.MySQL.User,
		app.config.MySQL.Password,
		app.config.MySQL.Host,
		app.config.MySQL.Port,
		app.config.MySQL.Database,
	)

	repo, err := mysqlstore.NewRepository(dsn)
	if err != nil {
		return err
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	return nil
}

// initRedis initializes Redis
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(app.config)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.resultCache = redisstore.NewResultCache(client.GetClient(), app.config.Calculation.CacheTTL)
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initQueue initializes the recompute queue
func (app *Application) initQueue() error {
	mgr, err := queueasynq.NewManager(app.config)
	if err != nil {
		return err
	}

	app.queueMgr = mgr
	app.registerCleanup(func() {
		mgr.Close()
		logger.InfoCtx(app.ctx, "Recompute queue has been closed")
	})

	return nil
}

// initServices initializes service layer
func (app *Application) initServices() error {
	app.calculationService = service.NewCalculationService(app.mysqlRepo, app.resultCache)
	app.ingestService = service.NewIngestService(app.mysqlRepo, app.queueMgr, app.resultCache)
	app.rollupService = service.NewRollupService(app.mysqlRepo, app.calculationService)
	app.queryService = service.NewQueryService(app.mysqlRepo, app.resultCache, app.calculationService, app.config)

	// Queued recompute tasks run through the same calculation pipeline
	app.queueMgr.RegisterHandler(queueasynq.TypeRecompute, service.NewRecomputeHandler(app.calculationService))

	return nil
}

// initHandlers initializes handler layer
func (app *Application) initHandlers() error {
	app.ingestHandler = handler.NewIngestHandler(app.ingestService, app.queueMgr)
	app.oeeHandler = handler.NewOEEHandler(app.queryService)
	app.equipmentHandler = handler.NewEquipmentHandler(app.queryService)
	return nil
}

// initHTTPServer initializes HTTP server
func (app *Application) initHTTPServer() error {
	// Initialize router
	r := router.NewRouter(app.ingestHandler, app.oeeHandler, app.equipmentHandler)

	// Set Gin mode
	gin.SetMode(app.config.Server.Mode)

	// Create Gin engine
	app.ginEngine = gin.New()
	app.ginEngine.Use(gin.Recovery())

	// Setup routes
	r.Setup(app.ginEngine)

	// Create HTTP server
	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}

	return nil
}
