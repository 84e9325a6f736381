package router

import (
	"time"

	"knitmes/internal/config"
	"knitmes/internal/handler"
	"knitmes/internal/infra"
	"knitmes/internal/middleware"
	"knitmes/internal/model"
	"knitmes/internal/repository"
	"knitmes/internal/service"
	"knitmes/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, printerCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	printer := infra.NewPrinterClient(cfg.PrinterSidecarURL)

	tolerance, err := decimal.NewFromString(cfg.WeightToleranceKg)
	if err != nil {
		log.Warn().Str("value", cfg.WeightToleranceKg).Msg("invalid weight tolerance, gate disabled")
		tolerance = decimal.Zero
	}
	retry := service.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond,
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	lotRepo := repository.NewLotRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	confirmationRepo := repository.NewConfirmationRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	captureRepo := repository.NewCaptureRepository(db)
	dispatchRepo := repository.NewDispatchRepository(db)
	shiftRepo := repository.NewShiftRepository(db)

	// Worker dispatcher; injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	lotSvc := service.NewLotService(lotRepo)
	allocationSvc := service.NewAllocationService(assignmentRepo, confirmationRepo)
	storageSvc := service.NewStorageService(locationRepo, captureRepo)
	confirmationSvc := service.NewConfirmationService(
		lotRepo, assignmentRepo, confirmationRepo,
		storageSvc, printer, printerCB, dispatcher, tolerance, retry)
	dispatchSvc := service.NewDispatchService(dispatchRepo, captureRepo, confirmationRepo, dispatcher)
	reportSvc := service.NewReportService(confirmationRepo, dispatchRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	lotsH := handler.NewLotsHandler(lotSvc)
	assignmentsH := handler.NewAssignmentsHandler(allocationSvc)
	confirmationsH := handler.NewConfirmationsHandler(confirmationSvc)
	storageH := handler.NewStorageHandler(storageSvc)
	dispatchH := handler.NewDispatchHandler(dispatchSvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	shiftsH := handler.NewShiftsHandler(shiftRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, printerCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	allRoles := middleware.RequireRole(model.RoleOperator, model.RoleSupervisor, model.RoleAdmin)
	supervisorUp := middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		// Lots; supervisors plan, everyone reads
		v1.GET("/lots", allRoles, lotsH.ListLots)
		v1.GET("/lots/:allotment_id", allRoles, lotsH.GetLot)
		v1.POST("/lots", supervisorUp, lotsH.CreateLot)
		v1.PUT("/lots/:allotment_id/status", supervisorUp, lotsH.UpdateLotStatus)
		v1.GET("/lots/:allotment_id/confirmations", allRoles, confirmationsH.ListConfirmations)

		// Shift assignments and barcode generation
		v1.GET("/allocations/:id", allRoles, assignmentsH.GetAllocation)
		v1.GET("/allocations/:id/assignments", allRoles, assignmentsH.ListAssignments)
		v1.POST("/allocations/:id/assignments", allRoles, assignmentsH.CreateAssignment)
		v1.POST("/assignments/:id/barcodes", allRoles, assignmentsH.GenerateBarcodes)

		// FG confirmation
		v1.POST("/confirmations", allRoles, confirmationsH.ConfirmRoll)
		v1.POST("/confirmations/:id/reprint", allRoles, confirmationsH.ReprintSticker)

		// Storage
		v1.GET("/locations", allRoles, storageH.ListLocations)
		v1.DELETE("/locations/cache", supervisorUp, storageH.ResetLocationCache)
		v1.GET("/captures", allRoles, storageH.SearchCaptures)
		v1.POST("/captures", supervisorUp, storageH.CreateCapture)

		// Dispatch
		v1.GET("/dispatch/plannings", allRoles, dispatchH.ListPlannings)
		v1.POST("/dispatch/plannings", supervisorUp, dispatchH.CreatePlanning)
		v1.PUT("/dispatch/plannings/:id", supervisorUp, dispatchH.UpdatePlanning)
		v1.GET("/dispatch/:order_id", allRoles, dispatchH.GetOrder)
		v1.GET("/dispatch/:order_id/rolls", allRoles, dispatchH.ListRolls)
		v1.POST("/dispatch/:order_id/scan", allRoles, dispatchH.ScanRoll)
		v1.DELETE("/dispatch/:order_id/session", supervisorUp, dispatchH.ResetSession)
		v1.DELETE("/dispatch/rolls/:id", supervisorUp, dispatchH.RemoveRoll)

		// Reports
		v1.GET("/reports/ready-weight", allRoles, reportsH.ReadyWeight)
		v1.GET("/reports/ready-weight/export", allRoles, reportsH.ExportReadyWeight)
		v1.GET("/reports/dispatch-weight/:order_id", allRoles, reportsH.DispatchWeight)

		// Shift catalog
		v1.GET("/shifts", allRoles, shiftsH.ListShifts)
		v1.POST("/shifts", adminOnly, shiftsH.CreateShift)

		// Users; admin only
		users := v1.Group("/users", adminOnly)
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.DELETE("/:id", authH.DeactivateUser)
		}
	}

	// Swagger UI; only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
