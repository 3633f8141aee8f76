package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/schedule"
)

// ScheduleStopRequest es una parada dentro del payload de creación.
type ScheduleStopRequest struct {
	Station        string `json:"station"`
	WaitingMinutes int    `json:"waiting_minutes"`
}

// CreateScheduleRequest es el payload de creación de schedules. TrainKey es
// opcional: vacío auto-crea un tren operacional.
type CreateScheduleRequest struct {
	TrainKey    string                `json:"train_key"`
	StartHour   int                   `json:"start_hour"`
	StartMinute int                   `json:"start_minute"`
	Stops       []ScheduleStopRequest `json:"stops"`
	ValidFrom   string                `json:"valid_from"`  // YYYY-MM-DD
	ValidUntil  string                `json:"valid_until"` // YYYY-MM-DD
}

// CreateSchedule registra una corrida programada.
//
// POST /api/schedules
func CreateSchedule(c *fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
	}

	from, err := models.ParseDate(req.ValidFrom)
	if err != nil {
		return fail(c, err)
	}
	until, err := models.ParseDate(req.ValidUntil)
	if err != nil {
		return fail(c, err)
	}

	var trainKey models.Key
	if strings.TrimSpace(req.TrainKey) != "" {
		trainKey = models.KeyFromString(req.TrainKey)
	}

	stops := make([]schedule.Stop, len(req.Stops))
	for i, s := range req.Stops {
		stops[i] = schedule.Stop{
			Station:        models.KeyFromString(s.Station),
			WaitingMinutes: s.WaitingMinutes,
		}
	}

	setupMu.RLock()
	cat := catalog
	setupMu.RUnlock()
	if cat == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "schedule catalog not initialized",
		})
	}

	sched, err := cat.CreateSchedule(c.Context(), trainKey, req.StartHour, req.StartMinute, stops, from, until)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sched)
}

// ListSchedules lista todas las corridas.
//
// GET /api/schedules
func ListSchedules(c *fiber.Ctx) error {
	setupMu.RLock()
	cat := catalog
	setupMu.RUnlock()
	if cat == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "schedule catalog not initialized",
		})
	}

	list, err := cat.ListSchedules(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"schedules": list})
}

// GetSchedule retorna un schedule con sus paradas.
//
// GET /api/schedules/:id
func GetSchedule(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "invalid schedule id",
		})
	}

	setupMu.RLock()
	cat := catalog
	setupMu.RUnlock()
	if cat == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "schedule catalog not initialized",
		})
	}

	sched, stops, err := cat.GetSchedule(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"schedule": sched, "stops": stops})
}
