package main

import (
	"context"
	"log"
	"os"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/database"
	"budgetdesk/internal/handler"
	"budgetdesk/internal/middleware"
	"budgetdesk/internal/repository"
	"budgetdesk/internal/service"
	"budgetdesk/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Budget Desk API
// @version         1.0
// @description     Project budget management backend: projects, expenses with approval workflow, budgets, teams and notifications.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "budgetdesk"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	unitRepo := repository.NewBusinessUnitRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Authorization resolver over seeded reference data
	resolver := authz.NewResolver(teamRepo, permissionRepo, projectRepo)
	if err := permissionRepo.Seed(context.Background()); err != nil {
		log.Fatalf("Failed to seed role permissions: %v", err)
	}
	resolver.InvalidateCache()

	// Services
	notificationService := service.NewNotificationService(notificationRepo, userRepo, teamRepo, wsHub)
	authService := service.NewAuthService(userRepo, txManager)
	projectService := service.NewProjectService(projectRepo, teamRepo, budgetRepo, milestoneRepo, auditRepo, resolver, txManager, notificationService)
	expenseService := service.NewExpenseService(expenseRepo, projectRepo, budgetRepo, auditRepo, resolver, txManager, notificationService)
	budgetService := service.NewBudgetService(budgetRepo, projectRepo, expenseRepo, auditRepo, resolver, txManager, notificationService)
	teamService := service.NewTeamService(teamRepo, userRepo, projectRepo, auditRepo, resolver, txManager, notificationService)
	unitService := service.NewBusinessUnitService(unitRepo, projectRepo, userRepo, auditRepo, txManager)
	milestoneService := service.NewMilestoneService(milestoneRepo, projectRepo, resolver, notificationService)
	adminService := service.NewAdminService(userRepo, projectRepo, expenseRepo, budgetRepo, teamRepo, notificationRepo, auditRepo, txManager, notificationService)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, userRepo)
	projectHandler := handler.NewProjectHandler(projectService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	teamHandler := handler.NewTeamHandler(teamService)
	unitHandler := handler.NewBusinessUnitHandler(unitService)
	milestoneHandler := handler.NewMilestoneHandler(milestoneService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	adminHandler := handler.NewAdminHandler(adminService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"} // Frontend URL
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

	// API routing. Auth endpoints handle their own middleware; everything else
	// sits behind RequireAuth.
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)

	protected := router.Group("/api", middleware.RequireAuth(userRepo))
	projectHandler.RegisterRoutes(protected)
	expenseHandler.RegisterRoutes(protected)
	budgetHandler.RegisterRoutes(protected)
	teamHandler.RegisterRoutes(protected)
	unitHandler.RegisterRoutes(protected)
	milestoneHandler.RegisterRoutes(protected)
	notificationHandler.RegisterRoutes(protected)
	adminHandler.RegisterRoutes(protected)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
