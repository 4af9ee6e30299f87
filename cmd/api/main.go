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
	"github.com/railvoice/railvoice/internal/announce"
	"github.com/railvoice/railvoice/internal/config"
	"github.com/railvoice/railvoice/internal/docstore"
	"github.com/railvoice/railvoice/internal/infrastructure/dynamo"
	jwtinfra "github.com/railvoice/railvoice/internal/infrastructure/jwt"
	"github.com/railvoice/railvoice/internal/infrastructure/redisbus"
	"github.com/railvoice/railvoice/internal/infrastructure/redisdoc"
	snsinfra "github.com/railvoice/railvoice/internal/infrastructure/sns"
	transporthttp "github.com/railvoice/railvoice/internal/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Redis carries the partition change bus in every deployment; in
	// development it doubles as the document backend.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	var backend docstore.Backend
	switch cfg.DocBackend {
	case "redis":
		backend = redisdoc.New(rdb)
	default:
		dynamoClient := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTablePartitions)
		backend = dynamo.NewPartitionRepo(dynamoClient, cfg.DynamoTablePartitions)
	}
	docs := docstore.New(backend, redisbus.New(rdb))

	// JWT provider (optional — graceful fallback if the key is missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// SNS emergency push (optional — graceful fallback).
	var pusher announce.Pusher
	if cfg.SNSTopicARN != "" {
		if p, err := snsinfra.NewPublisher(cfg); err == nil {
			pusher = p
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		Docs:        docs,
		Pusher:      pusher,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the announcement streams are long-lived SSE.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, backend=%s)", cfg.AppPort, cfg.AppEnv, cfg.DocBackend)
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
