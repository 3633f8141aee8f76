package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/cache"
	"github.com/yourorg/trencl/internal/models"
)

// CreateStationRequest es el payload del alta de estación. Key es opcional:
// vacía delega el id al store.
type CreateStationRequest struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CreateStation da de alta una estación en ambos stores.
//
// POST /api/stations
func CreateStation(c *fiber.Ctx) error {
	var req CreateStationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
	}

	var key models.Key
	if strings.TrimSpace(req.Key) != "" {
		key = models.KeyFromString(req.Key)
	}

	setupMu.RLock()
	reg := stations
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "station registry not initialized",
		})
	}

	station, err := reg.AddStation(c.Context(), key, strings.TrimSpace(req.Name), strings.TrimSpace(req.Location))
	if err != nil {
		return fail(c, err)
	}

	// El listado cacheado quedó viejo.
	if cache.StationsCache != nil {
		cache.StationsCache.Delete("stations:all")
	}
	return c.Status(fiber.StatusCreated).JSON(station)
}

// ListStations lista todas las estaciones.
//
// GET /api/stations
func ListStations(c *fiber.Ctx) error {
	if cache.StationsCache != nil {
		if cached, found := cache.StationsCache.Get("stations:all"); found {
			return c.JSON(fiber.Map{"stations": cached, "cached": true})
		}
	}

	setupMu.RLock()
	reg := stations
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "station registry not initialized",
		})
	}

	list, err := reg.ListStations(c.Context())
	if err != nil {
		return fail(c, err)
	}
	if cache.StationsCache != nil {
		cache.StationsCache.Set("stations:all", list)
	}
	return c.JSON(fiber.Map{"stations": list, "cached": false})
}

// GetStation busca una estación por key.
//
// GET /api/stations/:key
func GetStation(c *fiber.Ctx) error {
	setupMu.RLock()
	reg := stations
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "station registry not initialized",
		})
	}

	station, err := reg.GetStation(c.Context(), models.KeyFromString(c.Params("key")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(station)
}

// ConnectStationsRequest es el payload para conectar dos estaciones.
type ConnectStationsRequest struct {
	From          string `json:"from"`
	To            string `json:"to"`
	TravelMinutes int    `json:"travel_time_minutes"`
}

// ConnectStations crea una arista dirigida entre dos estaciones.
//
// POST /api/stations/connect
func ConnectStations(c *fiber.Ctx) error {
	var req ConnectStationsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
	}

	setupMu.RLock()
	reg := stations
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "station registry not initialized",
		})
	}

	if err := reg.ConnectStations(c.Context(),
		models.KeyFromString(req.From), models.KeyFromString(req.To), req.TravelMinutes,
	); err != nil {
		return fail(c, err)
	}

	// Las búsquedas cacheadas pueden incluir rutas nuevas ahora.
	if cache.SearchCache != nil {
		cache.SearchCache.DeletePrefix("search:")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"from":                req.From,
		"to":                  req.To,
		"travel_time_minutes": req.TravelMinutes,
	})
}
