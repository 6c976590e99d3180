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

	"campus-market-api/internal/client"
	"campus-market-api/internal/config"
	"campus-market-api/internal/events"
	"campus-market-api/internal/repository"
	"campus-market-api/internal/server"
	"campus-market-api/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitMysqlClient(cfg.DatabaseURL)
	rdb := client.InitRedisClient(cfg.RedisURL)

	gateways := map[string]client.PaymentGateway{
		client.ProviderFlutterwave: client.NewFlutterwaveClient(&cfg.Flutterwave),
		client.ProviderMpesa:       client.NewMpesaClient(&cfg.Mpesa),
	}

	userRepo := repository.NewUserRepository(db)
	balanceRepo := repository.NewSellerBalanceRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cartRepo := repository.NewCartRepository(rdb)

	// The broker is optional infrastructure: without it order events are
	// simply not fanned out and the API still serves.
	var publisher events.Publisher
	var consumer *events.Consumer
	if cfg.RabbitMQURL != "" {
		var err error
		publisher, err = events.NewRabbitPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("rabbitmq publisher unavailable: %v", err)
		}

		consumer, err = events.NewConsumer(cfg.RabbitMQURL, notificationRepo)
		if err != nil {
			log.Printf("rabbitmq consumer unavailable: %v", err)
		} else if err := consumer.Start(context.Background()); err != nil {
			log.Printf("start order event consumer: %v", err)
		}
	}

	svc := &server.Services{
		Auth:         service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.TTLHours),
		User:         service.NewUserService(userRepo, productRepo, reviewRepo),
		Product:      service.NewProductService(productRepo),
		Order:        service.NewOrderService(db, orderRepo, productRepo, balanceRepo, publisher),
		Payment:      service.NewPaymentService(db, gateways, cfg.BaseURL, paymentRepo, orderRepo, userRepo, notificationRepo),
		Cart:         service.NewCartService(cartRepo),
		Review:       service.NewReviewService(reviewRepo, productRepo),
		Wishlist:     service.NewWishlistService(wishlistRepo, productRepo),
		Message:      service.NewMessageService(messageRepo, userRepo, notificationRepo),
		Notification: service.NewNotificationService(notificationRepo),
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(svc)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Println("consumer shutdown error:", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Println("publisher shutdown error:", err)
		}
	}

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
