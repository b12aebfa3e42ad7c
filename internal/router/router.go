package router

import (
	"ims_backend/internal/database"
	"ims_backend/internal/handlers"
	"ims_backend/internal/middleware"
	"ims_backend/internal/repositories"
	"ims_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *database.DB, clock services.BusinessClock) {
	// Initialize Repositories
	employeeRepo := repositories.NewEmployeeRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	productRepo := repositories.NewProductRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	dayRepo := repositories.NewDayRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	creditRepo := repositories.NewCreditRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Initialize Services
	authService := services.NewAuthService(employeeRepo)
	employeeService := services.NewEmployeeService(employeeRepo, db)
	categoryService := services.NewCategoryService(categoryRepo, db)
	supplierService := services.NewSupplierService(supplierRepo, db)
	productService := services.NewProductService(productRepo, categoryRepo, supplierRepo, movementRepo, db)
	dayService := services.NewDayService(dayRepo, db, clock)
	saleService := services.NewSaleService(saleRepo, productRepo, movementRepo, creditRepo, dayRepo, employeeRepo, db)
	creditService := services.NewCreditService(creditRepo, saleRepo, dayRepo, employeeRepo, db, clock)
	reportService := services.NewReportService(reportRepo, dayRepo, clock)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	employeeHandler := handlers.NewEmployeeHandler(employeeService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	supplierHandler := handlers.NewSupplierHandler(supplierService)
	productHandler := handlers.NewProductHandler(productService)
	dayHandler := handlers.NewDayHandler(dayService)
	saleHandler := handlers.NewSaleHandler(saleService)
	creditHandler := handlers.NewCreditHandler(creditService)
	reportHandler := handlers.NewReportHandler(reportService)

	SetupHealthRoutes(engine)

	apiV1 := engine.Group("/api/v1")

	// Public routes: login, and employee creation which bootstraps the first employer.
	SetupAuthRoutes(apiV1, authHandler, authService)
	apiV1.POST("/employees", middleware.OptionalAuthMiddleware(authService), employeeHandler.CreateEmployee)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(authService))
	{
		SetupEmployeeRoutes(authenticated, employeeHandler)
		SetupCategoryRoutes(authenticated, categoryHandler)
		SetupSupplierRoutes(authenticated, supplierHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupDayRoutes(authenticated, dayHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupCreditRoutes(authenticated, creditHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}
