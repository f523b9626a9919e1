package main

import (
	"log"

	_ "printshop/api/swagger" // swagger docs
	"printshop/internal/cache"
	"printshop/internal/config"
	"printshop/internal/database"
	"printshop/internal/handler"
	"printshop/internal/middleware"
	"printshop/internal/repository"
	"printshop/internal/service"
	"printshop/internal/websocket"
	"printshop/pkg/drive"
	"printshop/pkg/mailer"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           PrintShop Management API
// @version         1.0
// @description     Order lifecycle, inventory, procurement, billing and finance backend for a print shop.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	redisClient := cache.NewRedisClient(cfg.Redis)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	mailClient := mailer.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.MailDevMode)
	driveClient := drive.NewClient(cfg.DriveBaseURL, cfg.DriveAccessToken)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	counterRepo := repository.NewCounterRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	materialOrderRepo := repository.NewMaterialOrderRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	userService := service.NewUserService(userRepo)
	customerService := service.NewCustomerService(customerRepo, counterRepo, txManager)
	supplierService := service.NewSupplierService(supplierRepo, counterRepo, txManager)
	settingService := service.NewSettingService(settingRepo)
	billingService := service.NewBillingService(invoiceRepo, counterRepo, txManager, mailClient, driveClient, cfg)
	orderService := service.NewOrderService(orderRepo, materialRepo, employeeRepo, customerRepo, counterRepo, auditRepo, txManager, billingService, driveClient, wsHub)
	employeeService := service.NewEmployeeService(employeeRepo, orderRepo, counterRepo, auditRepo, txManager, mailClient, cfg)
	inventoryService := service.NewInventoryService(materialRepo, counterRepo, auditRepo, txManager, driveClient, wsHub)
	procurementService := service.NewProcurementService(materialOrderRepo, materialRepo, supplierRepo, expenseRepo, ledgerRepo, counterRepo, auditRepo, txManager, mailClient, wsHub, cfg)
	financeService := service.NewFinanceService(expenseRepo, ledgerRepo, invoiceRepo, employeeRepo, counterRepo, auditRepo, txManager)
	deliveryService := service.NewDeliveryService(deliveryRepo, employeeRepo, counterRepo, txManager, orderService)
	productionService := service.NewProductionService(productionRepo, employeeRepo, counterRepo, txManager, orderService)
	reportService := service.NewReportService(orderRepo, materialRepo, financeService, redisClient, cfg.ReportCacheTTL)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, middleware.RateLimit("10-M"))
	orderHandler := handler.NewOrderHandler(orderService, driveClient)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	procurementHandler := handler.NewProcurementHandler(procurementService)
	hrHandler := handler.NewHRHandler(employeeService)
	billingHandler := handler.NewBillingHandler(billingService)
	financeHandler := handler.NewFinanceHandler(financeService)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService)
	productionHandler := handler.NewProductionHandler(productionService)
	partnerHandler := handler.NewPartnerHandler(customerService, supplierService)
	reportHandler := handler.NewReportHandler(reportService)
	settingHandler := handler.NewSettingHandler(settingService)
	auditHandler := handler.NewAuditHandler(auditRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	procurementHandler.RegisterRoutes(router.Group(""))
	hrHandler.RegisterRoutes(router.Group(""))
	billingHandler.RegisterRoutes(router.Group(""))
	financeHandler.RegisterRoutes(router.Group(""))
	deliveryHandler.RegisterRoutes(router.Group(""))
	productionHandler.RegisterRoutes(router.Group(""))
	partnerHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	settingHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
