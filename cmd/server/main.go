package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"logitrack-backend/internal/database"
	"logitrack-backend/internal/handlers"
	"logitrack-backend/internal/metrics"
	"logitrack-backend/internal/middleware"
	"logitrack-backend/internal/models"
	"logitrack-backend/internal/services"
	"logitrack-backend/internal/visits"
	"logitrack-backend/internal/websocket"
)

func main() {
	// Load .env file (ignore error in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("❌ DATABASE_URL environment variable is required")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	if os.Getenv("SKIP_SEED") != "true" {
		if err := database.SeedUsers(db); err != nil {
			log.Printf("⚠️ Failed to seed users: %v", err)
		}
		if err := database.SeedBranches(db); err != nil {
			log.Printf("⚠️ Failed to seed branches: %v", err)
		}
		if err := database.SeedChecklistTemplates(db); err != nil {
			log.Printf("⚠️ Failed to seed checklist templates: %v", err)
		}
	}

	maxDistance := 0.0
	if v := os.Getenv("MAX_CHECKIN_DISTANCE_METERS"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			log.Fatalf("❌ Invalid MAX_CHECKIN_DISTANCE_METERS: %q", v)
		}
		maxDistance = parsed
	}

	store := visits.NewPostgresStore(db)
	tracker := visits.NewTracker(store, maxDistance)
	log.Printf("📍 Geofence radius: %.0fm", tracker.MaxDistanceMeters())

	// FCM is optional; the service runs without push notifications.
	var fcmService *services.FCMService
	if credsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); credsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(credsBase64)
		if err != nil {
			log.Printf("⚠️ Failed to initialize FCM from base64: %v", err)
			fcmService = nil
		} else {
			log.Println("✅ FCM service initialized")
		}
	} else if credsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE"); credsFile != "" {
		fcmService, err = services.NewFCMService(credsFile)
		if err != nil {
			log.Printf("⚠️ Failed to initialize FCM: %v", err)
			fcmService = nil
		} else {
			log.Println("✅ FCM service initialized")
		}
	} else {
		log.Println("⚠️ FCM not configured, push notifications disabled")
	}

	// Redis is optional; latest-location reads fall back to Postgres.
	var locationCache *services.LocationCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		locationCache, err = services.NewLocationCache(redisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v", err)
			locationCache = nil
		} else {
			log.Println("✅ Redis location cache connected")
			defer locationCache.Close()
		}
	}

	metrics.Register()

	hub := websocket.NewHub()
	go hub.Run()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/ws", websocket.HandleWebSocket(hub))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth)

		r.Route("/visits", func(r chi.Router) {
			r.Get("/", handlers.GetVisitHistory(tracker))
			r.Post("/check-in", handlers.CheckIn(tracker, hub, fcmService, db))
			r.Get("/active", handlers.GetActiveVisit(tracker))
			r.With(middleware.RequireRole(models.RoleAdmin, models.RoleManager, models.RoleDispatcher)).
				Get("/active/all", handlers.GetAllActiveVisits(tracker))
			r.Get("/{id}", handlers.GetVisit(tracker))
			r.Put("/{id}/check-out", handlers.CheckOut(tracker, hub))
			r.Get("/{id}/checklist", handlers.GetVisitChecklist(db))
			r.Post("/{id}/checklist", handlers.SaveChecklistResponse(tracker, db))
		})

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", handlers.GetBranches(db))
			r.Get("/{id}", handlers.GetBranch(db))
			r.With(middleware.RequireRole(models.RoleAdmin, models.RoleManager)).
				Post("/", handlers.CreateBranch(db))
		})

		r.Get("/checklist/templates", handlers.GetChecklistTemplates(db))

		r.With(middleware.RequireRole(models.RoleAdmin, models.RoleManager, models.RoleDispatcher)).
			Get("/kpis/branches", handlers.GetBranchKPIs(db, tracker.MaxDistanceMeters()))

		r.Route("/locations", func(r chi.Router) {
			r.Post("/", handlers.SaveLocation(db, hub, locationCache))
			r.Get("/motos/latest", handlers.GetLatestMotoLocations(db, locationCache))
			r.Get("/motos/{motoID}", handlers.GetMotoLocationHistory(db))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/fcm-token", handlers.RegisterFCMToken(db))
			r.Delete("/fcm-token", handlers.DeleteFCMToken(db))
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Logitrack coordinator service listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
