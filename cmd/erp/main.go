package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/RatishMoondra/pharma-erp/internal/config"
	"github.com/RatishMoondra/pharma-erp/internal/erp/entity"
	"github.com/RatishMoondra/pharma-erp/internal/erp/handler"
	"github.com/RatishMoondra/pharma-erp/internal/erp/repository"
	"github.com/RatishMoondra/pharma-erp/internal/erp/service"
	"github.com/RatishMoondra/pharma-erp/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting pharma-erp service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Vendor{},
		&entity.Material{},
		&entity.Medicine{},
		&entity.BOMEntry{},
		&entity.ProformaInvoice{},
		&entity.PIItem{},
		&entity.EOPA{},
		&entity.EOPAItem{},
		&entity.PurchaseOrder{},
		&entity.POItem{},
		&entity.StockEntry{},
		&entity.Document{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, reference-list caching disabled", zap.Error(err))
		rdb = nil
	}

	minioClient := initMinIO(cfg.MinIO, zapLogger)

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, minioClient, cfg.MinIO.Bucket, zapLogger, cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initMinIO(cfg config.MinIOConfig, zapLogger *zap.Logger) *minio.Client {
	if cfg.Endpoint == "" {
		zapLogger.Warn("MinIO not configured, document uploads disabled")
		return nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		zapLogger.Warn("MinIO init failed, document uploads disabled", zap.Error(err))
		return nil
	}
	return client
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		authed := v1.Group("")
		authed.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authed.GET("/auth/me", h.Auth.Me)
			authed.POST("/users", h.Auth.CreateUser)

			// Vendor master
			authed.GET("/vendors", h.Vendor.List)
			authed.GET("/vendors/active", h.Vendor.ListActive)
			authed.GET("/vendors/:id", h.Vendor.Get)
			authed.POST("/vendors", middleware.RequireRole("procurement"), h.Vendor.Create)
			authed.PUT("/vendors/:id", middleware.RequireRole("procurement"), h.Vendor.Update)

			// Material master
			authed.GET("/materials", h.Material.List)
			authed.GET("/materials/active", h.Material.ListActive)
			authed.GET("/materials/:id", h.Material.Get)
			authed.POST("/materials", middleware.RequireRole("procurement"), h.Material.Create)
			authed.PUT("/materials/:id", middleware.RequireRole("procurement"), h.Material.Update)

			// Medicine master and BOMs
			authed.GET("/medicines", h.Medicine.List)
			authed.GET("/medicines/active", h.Medicine.ListActive)
			authed.GET("/medicines/:id", h.Medicine.Get)
			authed.POST("/medicines", middleware.RequireRole("procurement"), h.Medicine.Create)
			authed.PUT("/medicines/:id", middleware.RequireRole("procurement"), h.Medicine.Update)

			authed.GET("/medicines/:id/bom/:category", h.BOM.Get)
			authed.PUT("/medicines/:id/bom/:category", middleware.RequireRole("procurement"), h.BOM.Replace)
			authed.GET("/medicines/:id/bom/:category/export", h.BOM.Export)
			authed.POST("/medicines/:id/bom/:category/import", middleware.RequireRole("procurement"), h.BOM.Import)
			authed.GET("/bom/template", h.BOM.Template)

			// Proforma invoices
			authed.GET("/pis", h.PI.List)
			authed.GET("/pis/:id", h.PI.Get)
			authed.POST("/pis", middleware.RequireRole("procurement"), h.PI.Create)
			authed.PUT("/pis/:id", middleware.RequireRole("procurement"), h.PI.Update)
			authed.POST("/pis/:id/approve", middleware.RequireRole("procurement"), h.PI.Approve)

			// EOPAs and explosion
			authed.GET("/eopas", h.EOPA.List)
			authed.GET("/eopas/:id", h.EOPA.Get)
			authed.POST("/eopas", middleware.RequireRole("procurement"), h.EOPA.Create)
			authed.POST("/eopas/:id/approve", middleware.RequireRole("procurement"), h.EOPA.Approve)
			authed.GET("/eopas/:id/explosion", h.EOPA.Explosion)
			authed.POST("/eopas/:id/purchase-orders", middleware.RequireRole("procurement"), h.PO.GenerateFromEOPA)

			// Purchase orders
			authed.GET("/purchase-orders", h.PO.List)
			authed.GET("/purchase-orders/:id", h.PO.Get)
			authed.POST("/purchase-orders", middleware.RequireRole("procurement"), h.PO.Create)
			authed.POST("/purchase-orders/:id/approve", middleware.RequireRole("procurement"), h.PO.Approve)
			authed.POST("/purchase-orders/:id/cancel", middleware.RequireRole("procurement"), h.PO.Cancel)
			authed.POST("/purchase-orders/:id/items/:itemId/receive", middleware.RequireRole("procurement"), h.PO.Receive)
			authed.GET("/purchase-orders/:id/export", h.PO.Export)

			// Stock
			authed.GET("/stock/balances", h.Stock.Balances)
			authed.GET("/stock/materials/:id/movements", h.Stock.Movements)
			authed.POST("/stock/issues", middleware.RequireRole("procurement"), h.Stock.Issue)

			// Documents
			authed.GET("/documents", h.Document.List)
			authed.POST("/documents", h.Document.Upload)
			authed.GET("/documents/:id/download", h.Document.Download)
			authed.DELETE("/documents/:id", middleware.RequireRole("procurement"), h.Document.Delete)
		}
	}
}
