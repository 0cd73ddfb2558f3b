package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/amani-foundation/donations-backend/config"
	"github.com/amani-foundation/donations-backend/controllers"
	"github.com/amani-foundation/donations-backend/middleware"
	"github.com/amani-foundation/donations-backend/repositories"
	"github.com/amani-foundation/donations-backend/routes"
	"github.com/amani-foundation/donations-backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (idempotency cache + session reference store)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Amani Foundation Donations API is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize the payment gateway client and log the merchant account
	// state. A balance failure never blocks startup.
	gatewayService := services.NewGatewayService()
	if balance, err := gatewayService.GetBalance(); err != nil {
		log.Printf("Warning: Could not check gateway merchant balance: %v", err)
	} else {
		log.Printf("Gateway merchant account balance: %.2f", balance)
	}

	emailService := services.NewEmailService()

	// Initialize repositories
	donationRepo := repositories.NewDonationRepository(client)

	// Initialize controllers
	donationController := controllers.NewDonationController(donationRepo, gatewayService, emailService)

	// Idempotent donation creation; falls back to an in-process store when
	// Redis is unavailable.
	var idemStore middleware.IdempotencyStore
	if redisClient != nil {
		idemStore = middleware.NewRedisIdempotencyStore(redisClient, 24*time.Hour)
	} else {
		idemStore = middleware.NewMemoryIdempotencyStore(24 * time.Hour)
	}
	idempotency := middleware.NewIdempotency(idemStore)

	routes.RegisterDonationRoutes(e, donationController, idempotency)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
	config.CloseRedis()
	log.Println("Server stopped")
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
