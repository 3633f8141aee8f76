package routes

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/handlers"
	"github.com/yourorg/trencl/internal/middleware"
	"github.com/yourorg/trencl/internal/topology"
)

// Register cablea todos los endpoints del API.
func Register(app *fiber.App, db *sql.DB, topo *topology.Store) {
	handlers.Setup(db, topo)

	// ============================================================================
	// API PÚBLICA
	// ============================================================================
	api := app.Group("/api")

	// Health check (sin rate limiting)
	api.Get("/health", handlers.Health)

	// ============================================================================
	// BÚSQUEDA DE CONEXIONES
	// RATE LIMITING: SearchRateLimiter (200 req/min)
	// ============================================================================
	connections := api.Group("/connections")
	connections.Use(middleware.SearchRateLimiter())

	connections.Get("/search", handlers.SearchConnections)
	// GET /api/connections/search?from=1&to=3&sort_by=travel_time&order=asc&limit=5
	// Filtro opcional: &travel_date=2026-03-01&anchor=departure|arrival

	// ============================================================================
	// ESTACIONES (alta dual MySQL + Neo4j)
	// ============================================================================
	stations := api.Group("/stations")
	stations.Post("/", handlers.CreateStation)
	stations.Get("/", handlers.ListStations)
	stations.Post("/connect", handlers.ConnectStations)
	stations.Get("/:key", handlers.GetStation)

	// ============================================================================
	// TRENES
	// ============================================================================
	trains := api.Group("/trains")
	trains.Post("/", handlers.CreateTrain)
	trains.Get("/", handlers.ListTrains)
	trains.Get("/:key/status", handlers.GetTrainStatus)
	trains.Put("/:key", handlers.UpdateTrain)
	trains.Delete("/:key", handlers.DeleteTrain)

	// ============================================================================
	// SCHEDULES (corridas programadas)
	// ============================================================================
	schedules := api.Group("/schedules")
	schedules.Post("/", handlers.CreateSchedule)
	schedules.Get("/", handlers.ListSchedules)
	schedules.Get("/:id", handlers.GetSchedule)

	// ============================================================================
	// USUARIOS Y COMPRAS
	// RATE LIMITING en compra: BookingRateLimiter (30 req/min)
	// ============================================================================
	api.Post("/users", handlers.CreateUser)
	api.Get("/users", handlers.ListUsers)
	api.Delete("/users/:email", handlers.DeleteUser)
	api.Get("/users/:email/tickets", handlers.PurchaseHistory)

	api.Post("/tickets", middleware.BookingRateLimiter(), handlers.BuyTicket)

	// ============================================================================
	// IMPORTACIÓN DE MALLA
	// RATE LIMITING: ImportRateLimiter (5 req/5min) - operación costosa
	// ============================================================================
	api.Post("/network/import", middleware.ImportRateLimiter(), handlers.ImportNetwork)

	// ============================================================================
	// OBSERVABILIDAD
	// ============================================================================
	api.Get("/intents/pending", handlers.ListPendingIntents)
	api.Get("/cache/stats", handlers.GetCacheStats)
	api.Delete("/cache", handlers.ClearCache)
}
