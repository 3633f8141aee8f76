package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/cache"
	"github.com/yourorg/trencl/internal/models"
)

// CreateTrainRequest es el payload del alta de trenes. Key es opcional.
type CreateTrainRequest struct {
	Key      string `json:"key"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

// CreateTrain da de alta un tren.
//
// POST /api/trains
func CreateTrain(c *fiber.Ctx) error {
	var req CreateTrainRequest
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
	reg := trains
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "train registry not initialized",
		})
	}

	train, err := reg.AddTrain(c.Context(), key, req.Capacity, models.TrainStatus(strings.ToUpper(req.Status)))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(train)
}

// ListTrains lista todos los trenes.
//
// GET /api/trains
func ListTrains(c *fiber.Ctx) error {
	setupMu.RLock()
	reg := trains
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "train registry not initialized",
		})
	}

	list, err := reg.ListTrains(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"trains": list})
}

// UpdateTrainRequest actualiza capacidad y/o estado; los campos omitidos no
// se tocan.
type UpdateTrainRequest struct {
	Capacity *int    `json:"capacity"`
	Status   *string `json:"status"`
}

// UpdateTrain actualiza un tren existente.
//
// PUT /api/trains/:key
func UpdateTrain(c *fiber.Ctx) error {
	var req UpdateTrainRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
	}

	setupMu.RLock()
	reg := trains
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "train registry not initialized",
		})
	}

	var status *models.TrainStatus
	if req.Status != nil {
		s := models.TrainStatus(strings.ToUpper(*req.Status))
		status = &s
	}

	key := models.KeyFromString(c.Params("key"))
	train, err := reg.UpdateTrain(c.Context(), key, req.Capacity, status)
	if err != nil {
		return fail(c, err)
	}
	if cache.StatusCache != nil {
		cache.StatusCache.Delete(fmt.Sprintf("train-status:%d", train.ID))
	}
	return c.JSON(train)
}

// GetTrainStatus retorna el estado operacional de un tren.
//
// GET /api/trains/:key/status
func GetTrainStatus(c *fiber.Ctx) error {
	setupMu.RLock()
	reg := trains
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "train registry not initialized",
		})
	}

	key := models.KeyFromString(c.Params("key"))
	id, err := key.Normalize()
	if err != nil {
		return fail(c, err)
	}

	cacheKey := fmt.Sprintf("train-status:%d", id)
	if cache.StatusCache != nil {
		if cached, found := cache.StatusCache.Get(cacheKey); found {
			return c.JSON(fiber.Map{"train": id, "status": cached, "cached": true})
		}
	}

	status, err := reg.GetTrainStatus(c.Context(), key)
	if err != nil {
		return fail(c, err)
	}
	if cache.StatusCache != nil {
		cache.StatusCache.Set(cacheKey, status)
	}
	return c.JSON(fiber.Map{"train": id, "status": status, "cached": false})
}

// DeleteTrain elimina un tren con toda su cascada.
//
// DELETE /api/trains/:key
func DeleteTrain(c *fiber.Ctx) error {
	setupMu.RLock()
	reg := trains
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "train registry not initialized",
		})
	}

	if err := reg.DeleteTrain(c.Context(), models.KeyFromString(c.Params("key"))); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
