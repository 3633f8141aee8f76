package handlers

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthResponse representa el estado de salud del sistema
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

// Health proporciona un health check completo del sistema
func Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: MySQL
	// ============================================================================
	setupMu.RLock()
	db := dbConn
	topo := topoStore
	setupMu.RUnlock()

	if db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			services["mysql"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["mysql"] = "healthy"
		}
	} else {
		services["mysql"] = "not_initialized"
		overall = "degraded"
	}

	// ============================================================================
	// CHECK: Neo4j (topología)
	// ============================================================================
	if topo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		count, err := topo.CountStations(ctx)
		switch {
		case err != nil:
			services["neo4j"] = "unhealthy: " + err.Error()
			overall = "degraded"
		case count == 0:
			services["neo4j"] = "empty"
		default:
			services["neo4j"] = "healthy"
		}
	} else {
		services["neo4j"] = "not_initialized"
		overall = "degraded"
	}

	// ============================================================================
	// CHECK: Intents pendientes (escrituras duales interrumpidas)
	// ============================================================================
	if db != nil {
		setupMu.RLock()
		j := journal
		setupMu.RUnlock()
		if j != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			pending, err := j.Pending(ctx)
			switch {
			case err != nil:
				services["write_intents"] = "unhealthy: " + err.Error()
				overall = "degraded"
			case len(pending) > 0:
				services["write_intents"] = "pending intents need repair"
				overall = "degraded"
			default:
				services["write_intents"] = "healthy"
			}
		}
	}

	// ============================================================================
	// Determinar código de estado HTTP
	// ============================================================================
	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}
