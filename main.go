package main

import (
	"time"

	"formdeck/config"
	"formdeck/models"
	"formdeck/routes"
	"formdeck/services"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment")
	}

	cfg := config.LoadConfig()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	models.MigrateDB(db)

	limiter := utils.NewMemoryRateLimiter()
	go rateLimitCleanupRoutine(limiter)

	mailer := services.NewResendMailer(cfg.ResendAPIKey, cfg.FromEmail)
	notifier := services.NewNotificationService(mailer)
	captcha := services.NewCaptchaService()
	submissions := services.NewSubmissionService(db, limiter, captcha, notifier)
	billing := services.NewBillingService(db, cfg)
	auth := services.NewAuthService(db, cfg)

	r := gin.Default()

	// Attach the DB to the context
	r.Use(func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	})

	routes.AuthRoutes(r, auth, cfg.JWTSecret)
	routes.FormRoutes(r, cfg.JWTSecret)
	routes.SubmissionRoutes(r, submissions)
	routes.BillingRoutes(r, billing, cfg.JWTSecret)

	log.WithField("port", cfg.Port).Info("formdeck listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func rateLimitCleanupRoutine(limiter *utils.MemoryRateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		limiter.Cleanup(services.SubmitRateWindow)
	}
}
