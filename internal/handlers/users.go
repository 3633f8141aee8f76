package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/models"
)

// CreateUserRequest es el payload del alta de usuarios.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateUser registra un usuario nuevo.
//
// POST /api/users
func CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
	}

	setupMu.RLock()
	reg := users
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "user registry not initialized",
		})
	}

	user, err := reg.AddUser(c.Context(), strings.TrimSpace(req.Email), req.Password, req.IsAdmin)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// ListUsers lista todos los usuarios.
//
// GET /api/users
func ListUsers(c *fiber.Ctx) error {
	setupMu.RLock()
	reg := users
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "user registry not initialized",
		})
	}

	list, err := reg.ListUsers(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"users": list})
}

// DeleteUser elimina un usuario con sus tickets y reservas.
//
// DELETE /api/users/:email
func DeleteUser(c *fiber.Ctx) error {
	setupMu.RLock()
	reg := users
	setupMu.RUnlock()
	if reg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "user registry not initialized",
		})
	}

	if err := reg.DeleteUser(c.Context(), c.Params("email")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
