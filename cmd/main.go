package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sky366trade/backend/internal/auth"
	"github.com/sky366trade/backend/internal/config"
	"github.com/sky366trade/backend/internal/database"
	"github.com/sky366trade/backend/internal/gateway"
	"github.com/sky366trade/backend/internal/handlers"
	"github.com/sky366trade/backend/internal/jobs"
	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/mailer"
	"github.com/sky366trade/backend/internal/monitoring"
	"github.com/sky366trade/backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logging.InitLogger(cfg.Server.Production); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Logger.Sync()

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Gateway adapters
	razorpayClient := gateway.NewRazorpayClient(cfg.Razorpay.KeyID, cfg.Razorpay.Secret)
	binanceClient := gateway.NewBinanceClient(cfg.Binance.APIKey, cfg.Binance.SecretKey, cfg.Binance.BaseURL)

	// Initialize services
	emailService := mailer.NewEmailService(cfg.SMTP)
	accountService := services.NewAccountService(db, emailService)
	referralService := services.NewReferralService(db)
	taskService := services.NewTaskService(db, referralService)
	paymentService := services.NewPaymentService(db, razorpayClient, referralService)
	withdrawalService := services.NewWithdrawalService(db, binanceClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService, taskService)
	accountHandler := handlers.NewAccountHandler(accountService)
	referralHandler := handlers.NewReferralHandler(referralService)
	taskHandler := handlers.NewTaskHandler(taskService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)

	// Purge abandoned signups every hour
	cleanupJob := jobs.NewOTPCleanupJob(db)
	cleanupJob.Start(time.Hour)

	// Set up Gin router
	if cfg.Server.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(monitoring.Middleware())

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	router.POST("/register", authHandler.Register)
	router.POST("/send-otp", authHandler.SendOTP)
	router.POST("/verify-otp", authHandler.VerifyOTP)
	router.POST("/login", authHandler.Login)
	router.GET("/get-tasks", taskHandler.GetCatalog)
	router.POST("/submit-task", taskHandler.SubmitTask)
	router.POST("/payment/verify-payment", paymentHandler.VerifyPayment)

	// Protected routes
	api := router.Group("/")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/profile", accountHandler.GetProfile)
		api.PUT("/profile", accountHandler.UpdateProfile)
		api.POST("/wallet/update", accountHandler.UpdateWallet)

		api.GET("/tasks", taskHandler.ListTasks)
		api.POST("/tasks/:id/complete", taskHandler.CompleteTask)

		api.POST("/referral/attach", referralHandler.Attach)
		api.POST("/referral/distribute", referralHandler.Distribute)
		api.GET("/referral/team/:name", referralHandler.GetTeam)
		api.GET("/referral/referrals", referralHandler.GetReferrals)

		api.POST("/payment/create-order", paymentHandler.CreateOrder)

		api.POST("/withdraw", withdrawalHandler.Create)
		api.GET("/withdraw", withdrawalHandler.List)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Sugar().Infof("Server starting on port %s", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logging.Logger.Info("Server exited")
}
