package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/unilocator/server/internal/server/api"
	"github.com/unilocator/server/internal/server/realtime"
	"github.com/unilocator/server/internal/server/services"
	"github.com/unilocator/server/internal/server/setup"
	"github.com/unilocator/server/internal/server/storage"
	"github.com/unilocator/server/pkg/version"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var rootCmd = &cobra.Command{
	Use:   "unilocator-server",
	Short: "Unilocator Server - multi-device location tracking",
	Long:  "Server component for Unilocator providing device pairing, telemetry ingestion and realtime event streaming",
	// Default to serve command if no subcommand provided
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracking server",
	Long:  "Start the Unilocator server with HTTP API and websocket event streaming",
	Run:   runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersion("unilocator-server"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, adminCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.Printf("=== Unilocator Server ===")
	log.Printf("%s", version.GetVersion("unilocator-server"))
	log.Println()

	// Step 1: Setup database (auto-install Docker + PostgreSQL if needed)
	log.Println("=== Database Setup ===")
	if err := setup.EnsureDatabase(); err != nil {
		log.Fatalf("Failed to setup database: %v", err)
	}

	// Step 2: Connect to database
	log.Println("Connecting to database...")
	db, err := storage.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// Step 3: Run embedded migrations
	log.Println("Running database migrations...")
	if err := runEmbeddedMigrations(db.DB.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete")

	// Initialize repositories
	userRepo := storage.NewUserRepository(db)
	codeRepo := storage.NewCodeRepository(db)
	deviceRepo := storage.NewDeviceRepository(db)

	// Realtime hub fans device events out to connected viewers
	hub := realtime.NewHub()
	defer hub.Shutdown()

	// Presence cache tracks recently-seen devices in memory
	presence := services.NewPresenceCache()

	// Initialize Firebase service (optional - only if configured)
	var firebaseService *services.FirebaseService
	ctx := context.Background()
	if fbService, err := services.NewFirebaseService(ctx); err != nil {
		log.Printf("Warning: Firebase not configured: %v", err)
		log.Println("Firebase token authentication will not be available")
	} else {
		firebaseService = fbService
		log.Println("Firebase authentication initialized")
	}

	// Initialize services
	authService := services.NewAuthService(userRepo)
	identityService := services.NewIdentityService(userRepo, firebaseService)
	codeService := services.NewCodeService(codeRepo, hub)
	deviceService := services.NewDeviceService(deviceRepo, hub, presence)
	telemetryService := services.NewTelemetryService(deviceRepo, hub, presence)

	// Firestore mirror (optional - only if Firebase is configured)
	if firebaseService != nil {
		if mirror, err := services.NewMirrorService(ctx); err != nil {
			log.Printf("Warning: Firestore mirror initialization failed: %v", err)
			log.Println("Telemetry mirroring will not be available")
		} else {
			telemetryService.SetMirror(mirror)
			deviceService.SetMirror(mirror)
			defer mirror.Close()
			log.Println("Firestore telemetry mirror initialized")
		}
	}

	// Initialize handlers
	authHandler := api.NewAuthHandler(authService)
	pairingHandler := api.NewPairingHandler(codeService, deviceService)
	deviceHandler := api.NewDeviceHandler(deviceService)
	telemetryHandler := api.NewTelemetryHandler(telemetryService)
	wsHandler := api.NewWSHandler(hub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.CORSMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"unilocator"}`))
	})

	// Public routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// The pairing device polls this before it has credentials
	r.Post("/api/pair/check", pairingHandler.CheckConnection)

	// Protected routes
	r.Route("/api", func(r chi.Router) {
		r.Use(api.AuthMiddleware(identityService))

		// Pairing
		r.Post("/pair/mint", pairingHandler.MintCode)
		r.Post("/pair/connect", pairingHandler.ConnectDevice)

		// Device management
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", deviceHandler.ListDevices)
			r.Patch("/{device_id}", deviceHandler.RenameDevice)
			r.Delete("/{device_id}", deviceHandler.DeleteDevice)
			r.Get("/{device_id}/telemetry", deviceHandler.GetTelemetry)

			// Telemetry ingestion
			r.Post("/{device_id}/location", telemetryHandler.UpdateLocation)
			r.Post("/{device_id}/battery", telemetryHandler.UpdateBattery)
			r.Post("/{device_id}/network", telemetryHandler.UpdateNetwork)
		})

		// Realtime event stream
		r.Get("/ws", wsHandler.Subscribe)
	})

	// Get server config
	host := os.Getenv("API_HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	// Find available port
	port = findAvailableAPIPort(port)
	addr := fmt.Sprintf("%s:%s", host, port)

	// Create server
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup jobs
	go sweepExpiredCodes(codeService)
	go purgeStaleCodes(codeRepo)

	// Start server
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// sweepExpiredCodes periodically deactivates pairing codes past their
// expiry. Consume re-checks expiry itself, so this only keeps listings
// and the table tidy.
func sweepExpiredCodes(codeService *services.CodeService) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		if n, err := codeService.ExpireSweep(ctx); err != nil {
			log.Printf("Failed to sweep expired codes: %v", err)
		} else if n > 0 {
			log.Printf("Deactivated %d expired pairing codes", n)
		}
	}
}

// purgeStaleCodes deletes inactive codes once they are old enough to be
// useless for auditing.
func purgeStaleCodes(codeRepo *storage.CodeRepository) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		if n, err := codeRepo.DeleteInactiveOlderThan(ctx, 7*24*time.Hour); err != nil {
			log.Printf("Failed to purge stale codes: %v", err)
		} else if n > 0 {
			log.Printf("Purged %d stale pairing codes", n)
		}
	}
}

func runEmbeddedMigrations(db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migrations by filename to ensure correct order
	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, migration := range migrations {
		log.Printf("Applying migration: %s", migration)

		content, err := migrationsFS.ReadFile(filepath.Join("migrations", migration))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", migration, err)
		}

		// Migrations are idempotent (IF NOT EXISTS), so re-running is safe
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration, err)
		}
	}

	return nil
}

// isPortAvailable checks if a port is available for binding
func isPortAvailable(port string) bool {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// findAvailableAPIPort finds an available port for the API server
func findAvailableAPIPort(preferredPort string) string {
	if isPortAvailable(preferredPort) {
		return preferredPort
	}

	log.Printf("Port %s in use, trying alternatives...", preferredPort)

	startPort := 8080
	if p, err := strconv.Atoi(preferredPort); err == nil {
		startPort = p
	}

	for i := 1; i <= 20; i++ {
		portStr := strconv.Itoa(startPort + i)
		if isPortAvailable(portStr) {
			log.Printf("✓ Found available port: %s", portStr)
			return portStr
		}
	}

	log.Printf("No available ports found, will attempt %s", preferredPort)
	return preferredPort
}
