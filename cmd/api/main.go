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
	"github.com/notifica-api/internal/application/audit"
	"github.com/notifica-api/internal/application/dispatch"
	"github.com/notifica-api/internal/application/notification"
	"github.com/notifica-api/internal/config"
	"github.com/notifica-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/notifica-api/internal/infrastructure/jwt"
	s3infra "github.com/notifica-api/internal/infrastructure/s3"
	"github.com/notifica-api/internal/infrastructure/smtp"
	"github.com/notifica-api/internal/infrastructure/sns"
	"github.com/notifica-api/internal/infrastructure/tsa"
	"github.com/notifica-api/internal/pkg/clock"
	"github.com/notifica-api/internal/scheduler"
	transporthttp "github.com/notifica-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(context.Background(), cfg)
	if err != nil {
		log.Fatalf("dynamodb client: %v", err)
	}
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if the key is missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	auditRepo := dynamo.NewAuditLogRepo(dynamoClient, cfg.DynamoTables.AuditLogs)

	certStore := s3infra.NewCertificateStore(s3infra.NewClient(cfg), cfg.S3CertificateBucket)
	mailer := smtp.NewMailer(cfg)
	tsaClient := tsa.NewClient(cfg)

	// SNS delivery sender (optional — graceful fallback).
	var deliverySender sns.DeliverySender
	if sender, err := sns.NewSender(cfg); err == nil {
		deliverySender = sender
	} else {
		log.Printf("WARN: SNS delivery sender not available: %v", err)
	}

	clk := clock.Real()
	auditSvc := audit.NewService(auditRepo)
	dispatchSvc := dispatch.NewService(notificationRepo, auditSvc, tsaClient, mailer, deliverySender, certStore, clk, dispatch.Options{
		MaxRetries: cfg.DispatchMaxRetries,
		Backoff:    cfg.DispatchBackoff,
		Timeout:    cfg.DispatchTimeout,
	})
	notificationSvc := notification.NewService(notificationRepo, auditSvc, dispatchSvc, certStore, clk)

	// Background sweep promoting due scheduled notifications into dispatch.
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	processor := scheduler.NewProcessor(notificationRepo, notificationSvc, dispatchSvc, clk, cfg.SweepInterval)
	go processor.Run(schedCtx)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		NotificationSvc: notificationSvc,
		AuditSvc:        auditSvc,
		JWTProvider:     jwtProvider,
	})

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
	stopScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
