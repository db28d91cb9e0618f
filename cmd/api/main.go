package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/tmuthee9044/netbill-backend/internal/modules/activity"
	"github.com/tmuthee9044/netbill-backend/internal/modules/auth"
	"github.com/tmuthee9044/netbill-backend/internal/modules/billing"
	"github.com/tmuthee9044/netbill-backend/internal/modules/customer"
	"github.com/tmuthee9044/netbill-backend/internal/modules/hr"
	"github.com/tmuthee9044/netbill-backend/internal/modules/inventory"
	"github.com/tmuthee9044/netbill-backend/internal/modules/network"
	"github.com/tmuthee9044/netbill-backend/internal/modules/payment"
	"github.com/tmuthee9044/netbill-backend/internal/modules/subscription"
	"github.com/tmuthee9044/netbill-backend/internal/modules/ticket"
	"github.com/tmuthee9044/netbill-backend/internal/modules/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	// Redis is optional: without it verification caching and webhook replay
	// guards are simply disabled.
	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Phase 1: Identity & Audit ───────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	authService := auth.NewService(userRepo, jwtSecret)
	auth.NewHandler(authService).RegisterRoutes(router)

	activityLogger := activity.NewLogger(db)
	activityHandler := activity.NewHandler(activityLogger)

	// ── Phase 2: Subscribers & Services ─────────────────────
	customerRepo := customer.NewPostgresRepository(db)
	customerService := customer.NewService(customerRepo)

	subscriptionRepo := subscription.NewPostgresRepository(db)
	subscriptionService := subscription.NewService(subscriptionRepo)

	// ── Phase 3: Billing ────────────────────────────────────
	billingRepo := billing.NewPostgresRepository(db)
	billingService := billing.NewService(billingRepo)

	// ── Phase 4: Pluggable Payments ─────────────────────────
	paymentRepo := payment.NewPostgresRepository(db)
	registry := payment.NewRegistry(paymentRepo, paymentRepo)
	if err := registry.LoadConfigs(context.Background()); err != nil {
		log.Fatalf("load payment gateways: %v", err)
	}
	paymentCache := payment.NewCache(redisClient)
	paymentService := payment.NewService(paymentRepo, registry, paymentCache, activityLogger)
	paymentHandler := payment.NewHandler(paymentService)
	paymentHandler.RegisterWebhookRoutes(router)

	// ── Phase 5: Network & Inventory ────────────────────────
	networkRepo := network.NewPostgresRepository(db)
	networkService := network.NewService(networkRepo)

	inventoryRepo := inventory.NewPostgresRepository(db)
	inventoryService := inventory.NewService(inventoryRepo)

	// ── Phase 6: Support & HR ───────────────────────────────
	ticketRepo := ticket.NewPostgresRepository(db)
	ticketService := ticket.NewService(ticketRepo)

	hrRepo := hr.NewPostgresRepository(db)
	hrService := hr.NewService(hrRepo, hr.FlatCalculator{DeductionRate: 0.05})

	// ── Protected Routes ────────────────────────────────────
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSecret))

		userHandler.RegisterRoutes(r)
		activityHandler.RegisterRoutes(r)
		customer.NewHandler(customerService).RegisterRoutes(r)
		subscription.NewHandler(subscriptionService).RegisterRoutes(r)
		billing.NewHandler(billingService).RegisterRoutes(r)
		paymentHandler.RegisterRoutes(r)
		network.NewHandler(networkService).RegisterRoutes(r)
		inventory.NewHandler(inventoryService).RegisterRoutes(r)
		ticket.NewHandler(ticketService).RegisterRoutes(r)
		hr.NewHandler(hrService).RegisterRoutes(r)
	})

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("NetBill API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
