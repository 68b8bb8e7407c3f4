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

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-tracker/internal/auth"
	"github.com/justsurfingit/job-tracker/internal/config"
	"github.com/justsurfingit/job-tracker/internal/database"
	"github.com/justsurfingit/job-tracker/internal/extract"
	"github.com/justsurfingit/job-tracker/internal/handlers"
	"github.com/justsurfingit/job-tracker/internal/middleware"
	"github.com/justsurfingit/job-tracker/internal/services"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database Connection
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 3. Initialize Core Services (Dependencies)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := services.NewAuthService(db, tokens)
	jobService := services.NewJobService(db)
	interviewService := services.NewInterviewService(db)
	matcherService := services.NewMatcherService(jobService)

	var llmService *services.LLMService
	if cfg.GeminiAPIKey != "" {
		llmService, err = services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("⚠️  LLM disabled: %v", err)
		} else {
			log.Println("✅ Gemini client ready.")
		}
	}

	// 4. Initialize Gmail Integration
	var gmailService *gmail.Service
	httpClient, err := auth.GetGmailClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
	if err != nil {
		log.Printf("⚠️  Gmail disabled: %v", err)
	} else {
		gmailService, err = gmail.NewService(ctx, option.WithHTTPClient(httpClient))
		if err != nil {
			log.Printf("⚠️  Failed to create Gmail Service: %v", err)
		} else {
			log.Println("✅ Gmail Service connected successfully.")
		}
	}

	// 5. Initialize Email Watcher
	emailService := services.NewEmailService(db, llmService, gmailService, matcherService, jobService, cfg.InboxOwnerEmail)
	if err := emailService.Start(cfg.InboxSchedule); err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer emailService.Stop()

	// 6. Initialize Handlers
	jobHandler := handlers.NewJobHandler(jobService, extract.NewFetcher(extract.DefaultFetchConfig()), nil)
	if llmService != nil {
		jobHandler.Fallback = llmService
	}

	limiter, err := middleware.NewLimiter(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 7. Setup Router
	router := handlers.NewRouter(handlers.RouterConfig{
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Limiter:        limiter,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
	}, handlers.Dependencies{
		Tokens:           tokens,
		AuthHandler:      handlers.NewAuthHandler(authService),
		JobHandler:       jobHandler,
		InterviewHandler: handlers.NewInterviewHandler(interviewService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Forced shutdown: %v", err)
	}
}
