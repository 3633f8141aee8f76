package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/cache"
	"github.com/yourorg/trencl/internal/models"
)

// ImportNetwork descarga e importa la malla completa de estaciones y
// conexiones. Corre serializado: una importación a la vez.
//
// POST /api/network/import
func ImportNetwork(c *fiber.Ctx) error {
	setupMu.RLock()
	db := dbConn
	topo := topoStore
	loader := netLoader
	setupMu.RUnlock()

	if db == nil || topo == nil || loader == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "network import not initialized",
		})
	}

	if !importMu.TryLock() {
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{
			Error: "a network import is already running",
		})
	}
	defer importMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := loader.Sync(ctx, db, topo)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{Error: err.Error()})
	}

	// Todo lo cacheado quedó potencialmente viejo.
	cache.ClearAllCaches()

	return c.JSON(summary)
}

// ListPendingIntents lista las escrituras duales sin resolver, para el
// tooling de reparación.
//
// GET /api/intents/pending
func ListPendingIntents(c *fiber.Ctx) error {
	setupMu.RLock()
	j := journal
	setupMu.RUnlock()
	if j == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "intent journal not initialized",
		})
	}

	pending, err := j.Pending(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"pending": pending, "count": len(pending)})
}
