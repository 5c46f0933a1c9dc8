package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/controllers"
	"github.com/crewlink/crewlink-api/middleware"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

func main() {
	log.Println("Starting CrewLink API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Realtime hub lives for the whole process
	services.InitHub()

	// AWS-backed services are optional in development
	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitS3Service(); err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
	} else {
		log.Println("AWS_S3_BUCKET not set, claim document uploads disabled")
	}
	if cfg.AWSAccessKeyID != "" {
		if _, err := services.InitEmailService(); err != nil {
			log.Fatalf("Failed to initialize email service: %v", err)
		}
	} else {
		log.Println("AWS credentials not set, notification emails disabled")
	}

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	registerRoutes(router, cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// registerRoutes wires every API endpoint onto the router
func registerRoutes(router *gin.Engine, cfg *config.Config) {
	v1 := router.Group("/api/v1")

	// Public endpoints
	v1.GET("/health", healthCheck)
	v1.GET("/database/status", databaseStatus)
	v1.GET("/agencies", controllers.ListAgencies)
	v1.GET("/agencies/:id", controllers.GetAgency)
	v1.GET("/trades", controllers.ListTrades)
	v1.GET("/regions", controllers.ListRegions)
	v1.POST("/labor-requests", controllers.SubmitLaborRequest)
	v1.POST("/labor-requests/confirm", controllers.ConfirmLaborRequest)

	// Authenticated endpoints
	auth := v1.Group("")
	auth.Use(middleware.EnsureValidToken(cfg))
	{
		auth.POST("/users", controllers.CreateUser)
		auth.GET("/users/me", controllers.GetMyProfile)
		auth.PUT("/users/me", controllers.UpdateMyProfile)

		auth.POST("/agencies/:id/claim", controllers.ClaimAgency)
		auth.GET("/agencies/:id/notifications", controllers.ListAgencyNotifications)
		auth.GET("/agencies/:id/notifications/stream", controllers.StreamAgencyNotifications)

		auth.POST("/labor-requests/notifications/:id/view", controllers.ViewNotification)
		auth.POST("/labor-requests/notifications/:id/respond", controllers.RespondNotification)

		auth.POST("/conversations", controllers.CreateConversation)
		auth.GET("/conversations", controllers.ListConversations)
		auth.GET("/conversations/unread-count", controllers.UnreadCount)
		auth.GET("/conversations/:id/messages", controllers.ListConversationMessages)
		auth.POST("/conversations/:id/messages", controllers.SendConversationMessage)
		auth.POST("/conversations/:id/read", controllers.MarkConversationRead)
		auth.GET("/conversations/:id/stream", controllers.StreamConversation)

		auth.PATCH("/messages/:id", controllers.EditMessage)
		auth.DELETE("/messages/:id", controllers.DeleteMessage)

		admin := auth.Group("/admin")
		{
			admin.GET("/labor-requests", controllers.AdminListLaborRequests)
			admin.PATCH("/labor-requests/:id/status", controllers.AdminUpdateLaborRequestStatus)
			admin.GET("/agency-claims", controllers.AdminListAgencyClaims)
			admin.POST("/agency-claims/:id/approve", controllers.AdminApproveAgencyClaim)
			admin.POST("/agency-claims/:id/reject", controllers.AdminRejectAgencyClaim)
			admin.PUT("/agencies/:id/trades", controllers.AdminReplaceAgencyTrades)
			admin.GET("/messages/:id/audit", controllers.AuditMessage)
		}
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "CrewLink API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
