package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/stayhub/stayhub-api/internal/application/recovery"
	"github.com/stayhub/stayhub-api/internal/config"
	"github.com/stayhub/stayhub-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/stayhub/stayhub-api/internal/infrastructure/jwt"
	"github.com/stayhub/stayhub-api/internal/infrastructure/memory"
	"github.com/stayhub/stayhub-api/internal/infrastructure/redisstore"
	"github.com/stayhub/stayhub-api/internal/infrastructure/smtp"
	transporthttp "github.com/stayhub/stayhub-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// A missing JWT secret is a configuration error; refuse to start.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	mailer := smtp.NewMailer(cfg)

	var codes recovery.CodeStore
	switch cfg.CodeStoreBackend {
	case "redis":
		codes = redisstore.NewCodeStore(cfg)
	case "dynamo":
		codes = dynamo.NewCodeRepo(dynamoClient, cfg.DynamoTables.VerificationCodes)
	default:
		// Single-process default; recovery codes are lost on restart.
		codes = memory.NewCodeStore()
	}
	log.Printf("verification-code store backend: %s", cfg.CodeStoreBackend)

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		Codes:       codes,
		Mailer:      mailer,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
