package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"carelink-go/internal/handlers"
	"carelink-go/internal/notify"
	"carelink-go/internal/push"
	"carelink-go/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	// The cookie store must be keyed after .env is applied, or SESSION_SECRET
	// from the file would be ignored.
	handlers.InitSessionStore()

	// Redis Configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDBStr := os.Getenv("REDIS_DB")
	redisDB := 0
	if redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// Initialize Redis store (in-app notification feed)
	feedStore := store.NewRedisStore(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// PostgreSQL Configuration
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Initialize PostgreSQL store (users, subscriptions, preferences)
	careStore, err := store.NewPostgresStore(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	// Run database migrations
	ctx := context.Background()
	if err := careStore.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Push sender
	vapidKeys, err := push.LoadVAPIDKeys()
	if err != nil {
		log.Fatalf("Failed to load VAPID keys: %v", err)
	}
	sender := push.NewSender(careStore, vapidKeys)
	composer := notify.NewComposer(feedStore, careStore, sender)

	h := handlers.NewHandler(feedStore, careStore, sender, composer)

	// Create a default admin on first boot
	h.InitDefaultAdmin(ctx)

	// Auth
	http.HandleFunc("/api/login", h.LoginHandler)
	http.HandleFunc("/api/logout", h.LogoutHandler)

	// Push pipeline
	http.HandleFunc("/api/push/key", h.GetVAPIDKeyHandler)
	http.HandleFunc("/api/push/subscribe", handlers.AuthMiddleware(h.SubscribePushHandler))
	http.HandleFunc("/api/push/unsubscribe", handlers.AuthMiddleware(h.UnsubscribePushHandler))
	http.HandleFunc("/api/push/test", handlers.AuthMiddleware(h.TestPushHandler))

	// In-app notification feed
	http.HandleFunc("/api/events/stream", handlers.AuthMiddleware(h.SSEHandler))
	http.HandleFunc("/api/notifications", handlers.AuthMiddleware(h.GetNotificationsHandler))
	http.HandleFunc("/api/notifications/", handlers.AuthMiddleware(h.MarkReadHandler))
	http.HandleFunc("/api/notifications/clear", handlers.AuthMiddleware(h.ClearNotificationsHandler))
	http.HandleFunc("/api/preferences", handlers.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetPreferencesHandler(w, r)
		} else {
			h.UpdatePreferencesHandler(w, r)
		}
	}))

	// Care-event intake (HMAC-signed, posted by the record-keeping layer)
	http.HandleFunc("/api/events", h.CareEventHandler)

	// Profile & 2FA
	http.HandleFunc("/api/profile", handlers.AuthMiddleware(h.GetProfileHandler))
	http.HandleFunc("/api/profile/password", handlers.AuthMiddleware(h.ChangePasswordHandler))
	http.HandleFunc("/api/2fa/generate", handlers.AuthMiddleware(h.Generate2FAHandler))
	http.HandleFunc("/api/2fa/enable", handlers.AuthMiddleware(h.Enable2FAHandler))
	http.HandleFunc("/api/2fa/disable", handlers.AuthMiddleware(h.Disable2FAHandler))

	// Care-team management (admin only)
	http.HandleFunc("/api/admin/users", handlers.AuthMiddleware(handlers.AdminMiddleware(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetUsersHandler(w, r)
		case http.MethodPost:
			h.CreateUserHandler(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	http.HandleFunc("/api/admin/users/", handlers.AuthMiddleware(handlers.AdminMiddleware(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			h.UpdateUserHandler(w, r)
		case http.MethodDelete:
			h.DeleteUserHandler(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Metrics
	http.Handle("/metrics", promhttp.Handler())

	// Service worker at origin root (scope covers the whole app)
	http.HandleFunc("/sw.js", handlers.ServeServiceWorker)

	// Serve static files (PWA assets)
	fs := http.FileServer(http.Dir("web/static"))
	http.Handle("/static/", http.StripPrefix("/static/", fs))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Listening on :" + port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
