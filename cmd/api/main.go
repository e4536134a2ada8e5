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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/airtable"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/config"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/handler"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/homework"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/httpmiddleware"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/identity"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/schedule"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/sheet"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/store"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/wise"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	idMode, err := schedule.ParseIDMode(cfg.ScheduleIDMode)
	if err != nil {
		return err
	}
	for _, profile := range []sheet.Profile{sheet.DemoScheduled, sheet.MeetingLinks} {
		if err := profile.Validate(); err != nil {
			return err
		}
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()
	if db != nil {
		if err := store.Bootstrap(context.Background(), db.Client); err != nil {
			log.Printf("warning: schema bootstrap failed: %v", err)
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	wiseClient := wise.New(cfg.WiseBaseURL, cfg.WiseInstituteID, cfg.WiseAPIKey, cfg.WiseNamespace, cfg.WiseAuthHeader, cfg.UpstreamTimeout)
	airtableClient := airtable.New(cfg.AirtableBaseID, cfg.AirtableTableID, cfg.AirtableAPIKey, cfg.UpstreamTimeout)

	repo := schedule.NewRepository(db.Client)
	sessions := schedule.NewService(repo)
	resolver := identity.NewResolver(repo, wiseClient, redisClient, cfg.RosterCacheTTL)
	discovery := homework.NewDiscovery(wiseClient, cfg.TestLinkPrefix, cfg.FanoutConcurrency, cfg.FanoutTimeout)

	h := handler.New(sessions, repo, repo, resolver, discovery, wiseClient, airtableClient, idMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running")
	})

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil && db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := r.Group("/api")
	api.GET("/all-schedules", h.AllSchedules)
	api.POST("/schedules/by-phone", h.SchedulesByPhone)
	api.GET("/schedules", h.ListSchedules)
	api.POST("/students/by-phone", h.StudentsByPhone)
	api.GET("/availability", h.Availability)
	api.POST("/homework/by-phone", h.HomeworkByPhone)
	api.GET("/upcoming-sessions", h.UpcomingSessions)
	api.POST("/airtable-students/search", h.AirtableSearch)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s (id mode %s)", cfg.HTTPPort, idMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
