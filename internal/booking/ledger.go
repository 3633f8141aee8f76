// ============================================================================
// Libro de Compras - TrenCL
// ============================================================================
// Toda la contabilidad de tickets y asientos pasa por acá. La compra corre
// en una sola transacción que toma un lock FOR UPDATE sobre la fila del
// tren: dos compras concurrentes sobre el mismo tren se serializan y la
// capacidad nunca se sobrevende.
// ============================================================================

package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/yourorg/trencl/internal/models"
)

// ConnectionInstance identifica la corrida concreta que el usuario compra:
// el tren y la fecha de salida, más el precio ya calculado por el motor de
// búsqueda.
type ConnectionInstance struct {
	TrainKey      models.Key  `json:"train_key"`
	DepartureDate models.Date `json:"departure_date"`
	Price         float64     `json:"price"`
}

// Ledger registra compras y reservas sobre MySQL.
type Ledger struct {
	db *sql.DB
}

// NewLedger crea el libro de compras.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// BuyTicket compra un ticket para el usuario sobre la corrida dada y, si
// reserveSeat es true, reserva además un asiento contra la capacidad del
// tren. Reglas dentro de la transacción:
//
//   - el usuario debe existir (NotFound)
//   - debe existir un schedule del tren con esa fecha de salida (NotFound)
//   - un usuario no puede tener más de una reserva en la misma corrida
//     (Conflict)
//   - la suma de asientos reservados no puede superar la capacidad
//     (CapacityExceeded)
func (l *Ledger) BuyTicket(ctx context.Context, email string, conn ConnectionInstance, reserveSeat bool) (*models.Ticket, error) {
	trainID, err := conn.TrainKey.Normalize()
	if err != nil {
		return nil, err
	}
	if err := conn.DepartureDate.Validate(); err != nil {
		return nil, err
	}
	if conn.Price < 0 {
		return nil, fmt.Errorf("%w: negative price", models.ErrInvalidArgument)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin purchase: %v", models.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query user: %v", models.ErrStoreFailure, err)
	}

	var scheduleID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM schedules
		WHERE train_id = ? AND departure_date = ?
		ORDER BY id LIMIT 1`,
		trainID, conn.DepartureDate.String(),
	).Scan(&scheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no schedule for train %d on %s", models.ErrNotFound, trainID, conn.DepartureDate)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query schedule: %v", models.ErrStoreFailure, err)
	}

	if reserveSeat {
		// Lock sobre la fila del tren: serializa las compras concurrentes
		// de la misma corrida.
		var capacity int
		err = tx.QueryRowContext(ctx,
			"SELECT capacity FROM trains WHERE id = ? FOR UPDATE", trainID,
		).Scan(&capacity)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: train %d", models.ErrNotFound, trainID)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: lock train: %v", models.ErrStoreFailure, err)
		}

		var alreadyReserved bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM seat_reservations sr
				JOIN tickets t ON t.id = sr.ticket_id
				WHERE t.user_id = ? AND t.schedule_id = ?)`,
			userID, scheduleID,
		).Scan(&alreadyReserved); err != nil {
			return nil, fmt.Errorf("%w: check existing reservation: %v", models.ErrStoreFailure, err)
		}

		var reserved int
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(sr.number_of_seats), 0)
			FROM seat_reservations sr
			JOIN tickets t ON t.id = sr.ticket_id
			WHERE t.schedule_id = ?`,
			scheduleID,
		).Scan(&reserved); err != nil {
			return nil, fmt.Errorf("%w: sum reservations: %v", models.ErrStoreFailure, err)
		}
		if err := reservationVerdict(capacity, reserved, alreadyReserved); err != nil {
			return nil, fmt.Errorf("%w (train %d, user %s)", err, trainID, email)
		}
	}

	ticket := &models.Ticket{
		UserID:       userID,
		ScheduleID:   scheduleID,
		PurchaseDate: time.Now().UTC(),
		Price:        conn.Price,
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO tickets (user_id, schedule_id, purchase_date, price)
		VALUES (?, ?, ?, ?)`,
		ticket.UserID, ticket.ScheduleID, ticket.PurchaseDate, ticket.Price,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert ticket: %v", models.ErrStoreFailure, err)
	}
	ticket.ID, _ = res.LastInsertId()

	if reserveSeat {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO seat_reservations (ticket_id, number_of_seats) VALUES (?, 1)",
			ticket.ID,
		); err != nil {
			return nil, fmt.Errorf("%w: insert seat reservation: %v", models.ErrStoreFailure, err)
		}
		ticket.ReservedSeats = 1
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit purchase: %v", models.ErrStoreFailure, err)
	}
	log.Printf("🎫 [BOOKING] Ticket %d: usuario=%s tren=%d fecha=%s asiento=%v",
		ticket.ID, email, trainID, conn.DepartureDate, reserveSeat)
	return ticket, nil
}

// reservationVerdict decide si una reserva de un asiento procede, con el
// lock del tren ya tomado. Un usuario con reserva previa en la corrida es
// Conflict; una corrida sin cupo es CapacityExceeded.
func reservationVerdict(capacity, reserved int, alreadyHolds bool) error {
	if alreadyHolds {
		return fmt.Errorf("%w: user already holds a reservation on this run", models.ErrConflict)
	}
	if reserved+1 > capacity {
		return fmt.Errorf("%w: run is full (%d/%d)", models.ErrCapacityExceeded, reserved, capacity)
	}
	return nil
}

// PurchaseHistory retorna el historial de compras del usuario, el viaje que
// parte más tarde primero. Un usuario desconocido retorna lista vacía, no
// error.
func (l *Ledger) PurchaseHistory(ctx context.Context, email string) ([]models.PurchaseRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT t.id, s.start_train_station_id, s.end_train_station_id,
		       s.departure_time, s.departure_date, s.arrival_time, s.arrival_date,
		       t.purchase_date, t.price, COALESCE(SUM(sr.number_of_seats), 0)
		FROM tickets t
		JOIN users u ON u.id = t.user_id
		JOIN schedules s ON s.id = t.schedule_id
		LEFT JOIN seat_reservations sr ON sr.ticket_id = t.id
		WHERE u.email = ?
		GROUP BY t.id, s.start_train_station_id, s.end_train_station_id,
		         s.departure_time, s.departure_date, s.arrival_time, s.arrival_date,
		         t.purchase_date, t.price
		ORDER BY s.departure_date DESC, s.departure_time DESC, t.purchase_date DESC, t.id DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query purchase history: %v", models.ErrStoreFailure, err)
	}
	defer rows.Close()

	history := []models.PurchaseRecord{}
	for rows.Next() {
		var rec models.PurchaseRecord
		var depDate, arrDate time.Time
		if err := rows.Scan(&rec.TicketID, &rec.StartStationID, &rec.EndStationID,
			&rec.DepartureTime, &depDate, &rec.ArrivalTime, &arrDate,
			&rec.PurchaseDate, &rec.TotalPrice, &rec.ReservedSeats); err != nil {
			return nil, fmt.Errorf("%w: scan purchase history: %v", models.ErrStoreFailure, err)
		}
		rec.DepartureDate = depDate.Format("2006-01-02")
		rec.ArrivalDate = arrDate.Format("2006-01-02")
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate purchase history: %v", models.ErrStoreFailure, err)
	}
	sortHistory(history)
	return history, nil
}

// sortHistory ordena el historial con el viaje que parte más tarde primero,
// desempatando por fecha de compra y ticket. Las fechas vienen como
// "2006-01-02" y las horas como "HH:MM:SS", así que el orden lexicográfico
// coincide con el cronológico.
func sortHistory(history []models.PurchaseRecord) {
	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i], history[j]
		if a.DepartureDate != b.DepartureDate {
			return a.DepartureDate > b.DepartureDate
		}
		if a.DepartureTime != b.DepartureTime {
			return a.DepartureTime > b.DepartureTime
		}
		if !a.PurchaseDate.Equal(b.PurchaseDate) {
			return a.PurchaseDate.After(b.PurchaseDate)
		}
		return a.TicketID > b.TicketID
	})
}
