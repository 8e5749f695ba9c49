package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lab-maintenance-backend/internal/config"
	"lab-maintenance-backend/internal/database"
	"lab-maintenance-backend/internal/handler"
	"lab-maintenance-backend/internal/notify"
	"lab-maintenance-backend/internal/repository"
	"lab-maintenance-backend/internal/router"
	"lab-maintenance-backend/internal/service"
	"lab-maintenance-backend/internal/session"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection
	db := database.Connect(cfg)

	// 4. Session revocation store
	revoker, purger := sessionStore(cfg.Redis)

	// 5. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	userLabRepo := repository.NewUserLabRepo(db)
	labRepo := repository.NewLabRepo(db)
	computerRepo := repository.NewComputerRepo(db)
	statusRepo := repository.NewStatusRepo(db)
	reportRepo := repository.NewReportRepo(db)
	logRepo := repository.NewTechnicianLogRepo(db)
	accessoryRepo := repository.NewAccessoryRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// 6. Initialize services
	sender := notify.NewSender(cfg.Mail)
	if !cfg.Mail.Enabled() {
		log.Println("Warning: MAIL_SERVER or MAIL_DEFAULT_SENDER not set, report dispatch will fail")
	}

	authService := service.NewAuthService(userRepo, auditRepo, revoker)
	userService := service.NewUserService(db, userRepo, userLabRepo, labRepo, auditRepo)
	labService := service.NewLabService(db, labRepo, computerRepo, accessoryRepo, auditRepo, cfg.Inventory.LabCascadeDelete)
	computerService := service.NewComputerService(db, labRepo, computerRepo, statusRepo, reportRepo, auditRepo, cfg.Inventory.MaxBulkComputers)
	statusService := service.NewStatusService(db, computerRepo, statusRepo, reportRepo, userLabRepo, auditRepo)
	reconcilerService := service.NewReconcilerService(db, computerRepo, statusRepo, reportRepo, statusService, auditRepo)
	reportService := service.NewReportService(db, computerRepo, reportRepo, logRepo, statusService, auditRepo, sender, cfg.Mail.Recipients)
	accessoryService := service.NewAccessoryService(accessoryRepo, labRepo, auditRepo)
	dashboardService := service.NewDashboardService(labRepo, computerRepo, statusRepo, reportRepo, userRepo, statusService)
	workerService := service.NewWorkerService(userRepo, purger, 15*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure an admin account exists
	if _, err := authService.EnsureDefaultAdmin(ctx, cfg.Admin.InitialPassword); err != nil {
		log.Fatalf("Failed to seed default admin: %v", err)
	}

	// 7. Start background worker in goroutine
	go workerService.Start(ctx)

	// 8. Setup Gin mode and router
	gin.SetMode(cfg.Server.GinMode)

	r := router.Setup(cfg, authService, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Lab:       handler.NewLabHandler(labService),
		Computer:  handler.NewComputerHandler(computerService, statusService),
		Status:    handler.NewStatusHandler(statusService, reconcilerService),
		Report:    handler.NewReportHandler(reportService),
		User:      handler.NewUserHandler(userService, authService),
		Accessory: handler.NewAccessoryHandler(accessoryService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 9. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel background worker context
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// sessionStore connects to Redis when configured and falls back to an
// in-process store otherwise. Only the in-process store needs purging.
func sessionStore(cfg config.RedisConfig) (session.Revoker, service.Purger) {
	if cfg.Addr == "" {
		log.Println("REDIS_ADDR not set, keeping session revocations in memory")
		store := session.NewMemoryStore()
		return store, store
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis at %s unreachable (%v), keeping session revocations in memory", cfg.Addr, err)
		_ = rdb.Close()
		store := session.NewMemoryStore()
		return store, store
	}

	log.Printf("Session revocations stored in Redis at %s", cfg.Addr)
	return session.NewRedisStore(rdb), nil
}
