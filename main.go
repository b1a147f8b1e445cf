package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"perchstats/api/approval"
	"perchstats/api/config"
	"perchstats/api/database"
	"perchstats/api/handlers"
	"perchstats/api/middleware"
	"perchstats/api/security"
	"perchstats/api/sources"
	"perchstats/api/store"
	"perchstats/api/warehouse"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Initialize PostgreSQL (organizations, entity approvals) ---
	dbClient, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()

	// --- Initialize ClickHouse (audit event log) ---
	chClient, err := database.NewClickHouseDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize ClickHouse database: %v", err)
	}
	defer chClient.Close()

	// --- Initialize Stores ---
	orgStore := store.NewOrgStore(dbClient.DB)
	approvalStore := store.NewApprovalStore(dbClient.DB)
	auditStore := store.NewAuditStore(chClient)

	// --- Initialize gateway components ---
	normalizer := sources.NewNormalizer()
	gate := security.NewGate(auditStore, orgStore)
	coordinator := approval.NewCoordinator(approvalStore, cfg.FallbackEntityIDs, cfg.DataSource)
	builder := warehouse.NewQueryBuilder(normalizer, cfg.Credential.ProjectID, cfg.WarehouseDataset, cfg.WarehouseTable, cfg.MaxRowLimit)

	// --- Initialize Handlers ---
	authHandlers := handlers.NewAuthHandlers(orgStore)
	analyticsHandlers := &handlers.AnalyticsHandlers{
		Gate:        gate,
		Coordinator: coordinator,
		Approvals:   approvalStore,
		Audit:       auditStore,
		Normalizer:  normalizer,
		Credentials: warehouse.NewCredentialService(),
		Builder:     builder,
		Warehouse:   warehouse.NewClient(cfg.WarehouseBaseURL, cfg.Credential.ProjectID),
		Transformer: warehouse.NewTransformer(normalizer),
		Credential:  cfg.Credential,
	}

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/approvals", analyticsHandlers.GetApprovals)

			analyticsGroup := protected.Group("/analytics")
			{
				analyticsGroup.POST("/search-traffic", analyticsHandlers.SearchTraffic)
				analyticsGroup.GET("/traffic-sources", analyticsHandlers.GetTrafficSources)
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Analytics gateway starting on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Analytics gateway failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
