package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/booking"
	"github.com/yourorg/trencl/internal/models"
)

// BuyTicketRequest es el payload de compra. ReserveSeat en true descuenta
// un asiento de la capacidad del tren.
type BuyTicketRequest struct {
	Email         string  `json:"email"`
	TrainKey      string  `json:"train_key"`
	DepartureDate string  `json:"departure_date"` // YYYY-MM-DD
	Price         float64 `json:"price"`
	ReserveSeat   bool    `json:"reserve_seat"`
}

// BuyTicket compra un ticket sobre una corrida concreta.
//
// POST /api/tickets
func BuyTicket(c *fiber.Ctx) error {
	var req BuyTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
	}

	departureDate, err := models.ParseDate(req.DepartureDate)
	if err != nil {
		return fail(c, err)
	}

	setupMu.RLock()
	led := ledger
	setupMu.RUnlock()
	if led == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "booking ledger not initialized",
		})
	}

	ticket, err := led.BuyTicket(c.Context(), strings.TrimSpace(req.Email), booking.ConnectionInstance{
		TrainKey:      models.KeyFromString(req.TrainKey),
		DepartureDate: departureDate,
		Price:         req.Price,
	}, req.ReserveSeat)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// PurchaseHistory lista las compras de un usuario, la más reciente primero.
// Un usuario desconocido retorna lista vacía.
//
// GET /api/users/:email/tickets
func PurchaseHistory(c *fiber.Ctx) error {
	setupMu.RLock()
	led := ledger
	setupMu.RUnlock()
	if led == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "booking ledger not initialized",
		})
	}

	history, err := led.PurchaseHistory(c.Context(), c.Params("email"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"email": c.Params("email"), "tickets": history})
}
