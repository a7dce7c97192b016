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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizrank-api/internal/config"
	"github.com/yourusername/quizrank-api/internal/handler"
	"github.com/yourusername/quizrank-api/internal/middleware"
	pgRepo "github.com/yourusername/quizrank-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizrank-api/internal/repository/redis"
	"github.com/yourusername/quizrank-api/internal/service"
	"github.com/yourusername/quizrank-api/pkg/auth"
	"github.com/yourusername/quizrank-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	catalogRepo := pgRepo.NewQuizCatalogRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	scoreRepo := pgRepo.NewUserScoreRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Services
	scoreboardService := service.NewScoreboardService(
		scoreRepo,
		attemptRepo,
		cacheRepo,
		time.Duration(cfg.Scoreboard.StatsCacheTTLSec)*time.Second,
	)
	attemptService := service.NewAttemptService(attemptRepo, catalogRepo, scoreboardService)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Handlers
	attemptHandler := handler.NewAttemptHandler(attemptService)
	scoreboardHandler := handler.NewScoreboardHandler(scoreboardService)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	// Trusted proxies: in production do not trust proxy headers, in
	// development trust localhost only.
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		// Quiz catalog browsing and per-quiz attempt routes
		quizzes := api.Group("/quizzes")
		quizzes.Use(authMiddleware.RequireAuth())
		{
			quizzes.GET("/browse", attemptHandler.BrowseQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUUIDParam("id", "quizID"))
			{
				quizWithID.POST("/start", attemptHandler.StartQuiz)
				quizWithID.GET("/history", attemptHandler.GetQuizHistory)
			}
		}

		// Attempt lifecycle
		attempts := api.Group("/attempts")
		attempts.Use(authMiddleware.RequireAuth())
		{
			attemptWithID := attempts.Group("/:id")
			attemptWithID.Use(middleware.ExtractUUIDParam("id", "attemptID"))
			{
				attemptWithID.GET("", attemptHandler.GetAttempt)
				attemptWithID.POST("/submit", attemptHandler.SubmitQuiz)
				attemptWithID.GET("/results", attemptHandler.GetResults)
			}
		}

		authed := api.Group("/")
		authed.Use(authMiddleware.RequireAuth())
		{
			authed.GET("/my-attempts", attemptHandler.GetMyAttempts)
		}

		// Scoreboard: reading is public, export is admin-only
		scoreboard := api.Group("/scoreboard")
		{
			scoreboard.GET("", scoreboardHandler.GetScoreboard)
			scoreboard.GET("/stats", scoreboardHandler.GetStats)

			authedScoreboard := scoreboard.Group("")
			authedScoreboard.Use(authMiddleware.RequireAuth())
			{
				authedScoreboard.GET("/my-rank", scoreboardHandler.GetMyRank)
			}

			adminScoreboard := scoreboard.Group("")
			adminScoreboard.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
			{
				adminScoreboard.GET("/export", scoreboardHandler.ExportScoreboard)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}

	log.Println("Server exited properly")
}
