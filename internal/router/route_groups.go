package router

import (
	"net/http"

	"ims_backend/internal/handlers"
	"ims_backend/internal/middleware"
	"ims_backend/internal/models"

	"github.com/gin-gonic/gin"
)

func adminsOnly() gin.HandlerFunc {
	return middleware.RoleAuthMiddleware(models.RoleEmployer, models.RoleManager)
}

// SetupHealthRoutes sets up the liveness routes.
func SetupHealthRoutes(engine *gin.Engine) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Inventory management API is running"})
	})
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, resolver middleware.EmployeeResolver) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/login-json", authHandler.LoginJSON)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware(resolver))
		{
			authRequiredRoutes.GET("/me", authHandler.Me)
		}
	}
}

// SetupEmployeeRoutes sets up the employee routes. POST /employees is registered separately.
func SetupEmployeeRoutes(authenticatedGroup *gin.RouterGroup, employeeHandler *handlers.EmployeeHandler) {
	employeeRoutes := authenticatedGroup.Group("/employees")
	{
		employeeRoutes.PUT("/me/password", employeeHandler.ChangePassword)
		employeeRoutes.GET("/:id", employeeHandler.GetEmployeeByID)

		adminRoutes := employeeRoutes.Group("")
		adminRoutes.Use(adminsOnly())
		{
			adminRoutes.GET("", employeeHandler.GetEmployees)
			adminRoutes.PUT("/:id", employeeHandler.UpdateEmployee)
			adminRoutes.DELETE("/:id", employeeHandler.DeleteEmployee)
		}
	}
}

// SetupCategoryRoutes sets up the category routes.
func SetupCategoryRoutes(authenticatedGroup *gin.RouterGroup, categoryHandler *handlers.CategoryHandler) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.GET("", categoryHandler.GetCategories)
		categoryRoutes.GET("/:id", categoryHandler.GetCategoryByID)

		adminRoutes := categoryRoutes.Group("")
		adminRoutes.Use(adminsOnly())
		{
			adminRoutes.POST("", categoryHandler.CreateCategory)
			adminRoutes.PUT("/:id", categoryHandler.UpdateCategory)
			adminRoutes.DELETE("/:id", categoryHandler.DeleteCategory)
		}
	}
}

// SetupSupplierRoutes sets up the supplier and supplier payment routes.
func SetupSupplierRoutes(authenticatedGroup *gin.RouterGroup, supplierHandler *handlers.SupplierHandler) {
	supplierRoutes := authenticatedGroup.Group("/suppliers")
	{
		supplierRoutes.GET("", supplierHandler.GetSuppliers)
		supplierRoutes.GET("/:id", supplierHandler.GetSupplierByID)

		adminRoutes := supplierRoutes.Group("")
		adminRoutes.Use(adminsOnly())
		{
			adminRoutes.POST("", supplierHandler.CreateSupplier)
			adminRoutes.PUT("/:id", supplierHandler.UpdateSupplier)
			adminRoutes.DELETE("/:id", supplierHandler.DeleteSupplier)
			adminRoutes.POST("/:id/payments", supplierHandler.RecordPayment)
			adminRoutes.GET("/:id/payments", supplierHandler.GetPayments)
		}
	}
}

// SetupProductRoutes sets up the product and stock movement routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	{
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)

		adminRoutes := productRoutes.Group("")
		adminRoutes.Use(adminsOnly())
		{
			adminRoutes.POST("", productHandler.CreateProduct)
			adminRoutes.PUT("/:id", productHandler.UpdateProduct)
			adminRoutes.DELETE("/:id", productHandler.DeleteProduct)
			adminRoutes.POST("/:id/restock", productHandler.Restock)
		}
	}

	movementRoutes := authenticatedGroup.Group("/stock-movements")
	movementRoutes.Use(adminsOnly())
	{
		movementRoutes.GET("", productHandler.GetStockMovements)
	}
}

// SetupDayRoutes sets up the sales day routes.
func SetupDayRoutes(authenticatedGroup *gin.RouterGroup, dayHandler *handlers.DayHandler) {
	dayRoutes := authenticatedGroup.Group("/days")
	{
		dayRoutes.GET("/current", dayHandler.CurrentDay)
		dayRoutes.GET("/:id", dayHandler.GetDayByID)

		adminRoutes := dayRoutes.Group("")
		adminRoutes.Use(adminsOnly())
		{
			adminRoutes.POST("/open", dayHandler.OpenDay)
			adminRoutes.POST("/close", dayHandler.CloseDay)
			adminRoutes.GET("", dayHandler.GetDays)
		}

		employerRoutes := dayRoutes.Group("")
		employerRoutes.Use(middleware.RoleAuthMiddleware(models.RoleEmployer))
		{
			employerRoutes.DELETE("/:id", dayHandler.DeleteDay)
		}
	}
}

// SetupSaleRoutes sets up the sale routes.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := authenticatedGroup.Group("/sales")
	{
		saleRoutes.POST("", saleHandler.CreateSale)
		saleRoutes.GET("/my", saleHandler.GetMySales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		saleRoutes.POST("/:id/pay", saleHandler.PaySale)

		adminRoutes := saleRoutes.Group("")
		adminRoutes.Use(adminsOnly())
		{
			adminRoutes.GET("", saleHandler.GetSales)
			adminRoutes.PUT("/:id", saleHandler.UpdateSale)
			adminRoutes.DELETE("/:id", saleHandler.DeleteSale)
		}
	}
}

// SetupCreditRoutes sets up the credit routes.
func SetupCreditRoutes(authenticatedGroup *gin.RouterGroup, creditHandler *handlers.CreditHandler) {
	creditRoutes := authenticatedGroup.Group("/credits")
	{
		creditRoutes.POST("", creditHandler.CreateCredit)
		creditRoutes.GET("/:id", creditHandler.GetCreditByID)

		adminRoutes := creditRoutes.Group("")
		adminRoutes.Use(adminsOnly())
		{
			adminRoutes.GET("", creditHandler.GetCredits)
			adminRoutes.PUT("/:id", creditHandler.UpdateCredit)
			adminRoutes.DELETE("/:id", creditHandler.DeleteCredit)
		}
	}
}

// SetupReportRoutes sets up the report and dashboard routes. All are admin only.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(adminsOnly())
	{
		reportRoutes.GET("/daily", reportHandler.DailyReport)
		reportRoutes.GET("/daily/export", reportHandler.ExportDailyReport)
		reportRoutes.GET("/period", reportHandler.PeriodReport)
		reportRoutes.GET("/period/export", reportHandler.ExportPeriodReport)
		reportRoutes.GET("/credits", reportHandler.CreditsReport)
		reportRoutes.GET("/inventory", reportHandler.InventoryReport)
		reportRoutes.GET("/suppliers", reportHandler.SuppliersReport)
		reportRoutes.GET("/top-products", reportHandler.TopProducts)
	}

	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(adminsOnly())
	{
		dashboardRoutes.GET("/summary", reportHandler.DashboardSummary)
	}
}
