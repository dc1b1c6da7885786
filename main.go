// api/main.go
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

	"cathedral/analytics/database"
	"cathedral/analytics/handlers"
	"cathedral/analytics/middleware"
	"cathedral/analytics/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Stores degrade instead of dying when a backend is missing: without
	// Postgres, telemetry is dropped and the rollup serves sample data;
	// without ClickHouse, the visitor widget and funnel upstream go dark.
	var pageViewStore *store.PageViewStore
	var orderStore *store.OrderStore
	var userStore *store.UserStore
	dbClient, err := database.NewPostgresDB()
	if err != nil {
		log.Printf("PostgreSQL unavailable, running degraded: %v", err)
	} else {
		defer dbClient.Close()
		pageViewStore = store.NewPageViewStore(dbClient.DB)
		orderStore = store.NewOrderStore(dbClient.DB)
		userStore = store.NewUserStore(dbClient.DB)
	}

	var visitorStore *store.VisitorStore
	chClient, err := database.NewClickHouseDB()
	if err != nil {
		log.Printf("ClickHouse unavailable, visitor stats disabled: %v", err)
	} else {
		defer chClient.Close()
		visitorStore = store.NewVisitorStore(chClient)
	}

	authHandlers := handlers.NewAuthHandlers(userStore)
	trackHandlers := handlers.NewTrackHandlers(pageViewStore, visitorStore)
	statsHandlers := handlers.NewStatsHandlers(orderStore, visitorStore)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		// Authentication Endpoints (no authentication required)
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		// Telemetry ingestion is open: the network sites post here for
		// every page activation.
		api.POST("/track/pageview", trackHandlers.TrackPageView)
		api.POST("/track/engagement", trackHandlers.TrackEngagement)

		api.GET("/sites", statsHandlers.GetSites)

		// Protected routes (the admin dashboard)
		protected := api.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			statsGroup := protected.Group("/stats")
			{
				statsGroup.GET("/network", statsHandlers.GetNetworkStats)
				statsGroup.GET("/visitors", statsHandlers.GetVisitorStats)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Cathedral analytics API starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed to start: %v", err)
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
