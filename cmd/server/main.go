package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/yourorg/trencl/internal/cache"
	appdb "github.com/yourorg/trencl/internal/db"
	"github.com/yourorg/trencl/internal/middleware"
	"github.com/yourorg/trencl/internal/routes"
	"github.com/yourorg/trencl/internal/topology"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New()
	app.Use(logger.New())
	app.Use(middleware.GlobalRateLimiter())

	cache.InitCaches()

	// ============================================================================
	// STORES: MySQL + Neo4j
	// ============================================================================
	var storesReady bool
	var topoStore *topology.Store

	go func() {
		for {
			db, err := appdb.Connect()
			if err != nil {
				log.Printf("db connect error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if err := appdb.EnsureSchema(db); err != nil {
				log.Printf("ensure schema error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			topo, err := topology.Connect(ctx)
			cancel()
			if err != nil {
				log.Printf("neo4j connect error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			topoStore = topo

			routes.Register(app, db, topo)
			storesReady = true
			log.Printf("✅ Stores ready and routes registered")
			return
		}
	}()

	// Wait briefly for stores to be ready
	for i := 0; i < 10 && !storesReady; i++ {
		time.Sleep(500 * time.Millisecond)
	}

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Señal de terminación recibida, cerrando servidor...")

		cache.StopCaches()

		if topoStore != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := topoStore.Close(ctx); err != nil {
				log.Printf("⚠️  Error cerrando conexión Neo4j: %v", err)
			}
			cancel()
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error cerrando servidor: %v", err)
		}

		log.Println("✅ Servidor cerrado correctamente")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Servidor escuchando en :%s", port)
	log.Println("📍 Endpoints disponibles:")
	log.Println("   GET    /api/connections/search     - Búsqueda de itinerarios")
	log.Println("   POST   /api/stations               - Alta de estación (dual store)")
	log.Println("   POST   /api/stations/connect       - Conectar estaciones")
	log.Println("   POST   /api/schedules              - Crear corrida programada")
	log.Println("   POST   /api/tickets                - Compra de tickets")
	log.Println("   GET    /api/users/:email/tickets   - Historial de compras")
	log.Println("   POST   /api/network/import         - Importación masiva de malla")
	log.Println("   GET    /api/health                 - Health check")
	log.Println("")
	log.Println("💡 Presiona Ctrl+C para detener")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
