package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/cache"
	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/search"
)

// SearchResponse es la respuesta del endpoint de búsqueda de conexiones.
type SearchResponse struct {
	Origin      string             `json:"origin"`
	Destination string             `json:"destination"`
	SortBy      models.SortBy      `json:"sort_by"`
	Itineraries []models.Itinerary `json:"itineraries"`
	Cached      bool               `json:"cached"`
}

// SearchConnections busca itinerarios entre dos estaciones.
//
// GET /api/connections/search?from=1&to=3&sort_by=travel_time&order=asc&limit=5&travel_date=2026-03-01&anchor=departure
func SearchConnections(c *fiber.Ctx) error {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "query params 'from' and 'to' are required",
		})
	}

	sortBy := models.ParseSortBy(c.Query("sort_by"))
	ascending := !strings.EqualFold(c.Query("order"), "desc")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
				Error: fmt.Sprintf("invalid limit %q", raw),
			})
		}
		limit = parsed
	}

	var travelDate *models.Date
	if raw := c.Query("travel_date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			return fail(c, err)
		}
		travelDate = &d
	}
	departureAnchored := !strings.EqualFold(c.Query("anchor"), "arrival")

	// Cache por combinación completa de parámetros; el TTL corto absorbe
	// los cambios de topología.
	cacheKey := fmt.Sprintf("search:%s:%s:%s:%v:%d:%s:%v",
		from, to, sortBy, ascending, limit, c.Query("travel_date"), departureAnchored)
	if cache.SearchCache != nil {
		if cached, found := cache.SearchCache.Get(cacheKey); found {
			resp := cached.(SearchResponse)
			resp.Cached = true
			return c.JSON(resp)
		}
	}

	setupMu.RLock()
	engine := searchEngine
	setupMu.RUnlock()
	if engine == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "search engine not initialized",
		})
	}

	itineraries, err := engine.Search(c.Context(), models.KeyFromString(from), models.KeyFromString(to), search.Options{
		TravelDate:        travelDate,
		DepartureAnchored: departureAnchored,
		SortBy:            sortBy,
		Ascending:         ascending,
		Limit:             limit,
	})
	if err != nil {
		return fail(c, err)
	}

	resp := SearchResponse{
		Origin:      from,
		Destination: to,
		SortBy:      sortBy,
		Itineraries: itineraries,
	}
	if cache.SearchCache != nil {
		cache.SearchCache.Set(cacheKey, resp)
	}
	return c.JSON(resp)
}
