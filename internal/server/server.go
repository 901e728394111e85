package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Jenil-Kakadiya/ScanNGo/config"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/checkin"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/handlers"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/logger"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/middleware"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/qrcode"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/registration"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	codec := qrcode.NewCodec(cfg.CheckinSigningKey)
	ledger := registration.NewLedger(db, log, cfg.StoreTimeout)
	checkinService := checkin.NewService(codec, ledger, log)

	r := gin.Default()

	setupRoutes(r, db, ledger, checkinService, codec)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info("server listening", zap.String("port", port))
	return r.Run(":" + port)
}

func setupRoutes(
	r *gin.Engine,
	db *gorm.DB,
	ledger *registration.Ledger,
	checkinService *checkin.Service,
	codec *qrcode.Codec,
) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.LedgerMiddleware(ledger))
	r.Use(middleware.CheckinMiddleware(checkinService))
	r.Use(middleware.CodecMiddleware(codec))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)
		public.GET("/auth/google", handlers.GoogleLogin)
		public.GET("/auth/google/callback", handlers.GoogleCallback)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.GET("/profile", handlers.GetProfile)

		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("", handlers.CreateEvent)
			eventProtected.PUT("/:id", handlers.UpdateEvent)
			eventProtected.POST("/:id/status", handlers.TransitionEvent)
			eventProtected.DELETE("/:id", handlers.DeleteEvent)
			eventProtected.POST("/:id/registrations", handlers.RegisterForEvent)
			eventProtected.GET("/:id/registrations", handlers.ListEventRegistrations)
		}

		registrations := protected.Group("/registrations")
		{
			registrations.GET("", handlers.ListMyRegistrations)
			registrations.DELETE("/:id", handlers.CancelRegistration)
			registrations.GET("/:id/qr", handlers.RegistrationQR)
		}

		protected.POST("/checkins", middleware.AdminOnly(), handlers.Checkin)
	}
}
