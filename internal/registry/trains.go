// ============================================================================
// Registro de Trenes - TrenCL
// ============================================================================

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/yourorg/trencl/internal/models"
)

// Trains administra el alta, actualización y baja de trenes en MySQL.
type Trains struct {
	db *sql.DB
}

// NewTrains crea el registro de trenes.
func NewTrains(db *sql.DB) *Trains {
	return &Trains{db: db}
}

// AddTrain registra un tren. Si key viene seteada se usa como id explícito
// (falla con Conflict si ya existe); si viene vacía el id lo asigna el
// auto-increment del store.
func (t *Trains) AddTrain(ctx context.Context, key models.Key, capacity int, status models.TrainStatus) (*models.Train, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: train capacity must be positive, got %d", models.ErrInvalidArgument, capacity)
	}
	if status == "" {
		status = models.TrainOperational
	} else if _, err := models.ParseTrainStatus(string(status)); err != nil {
		return nil, err
	}

	if key.IsZero() {
		res, err := t.db.ExecContext(ctx,
			"INSERT INTO trains (capacity, status) VALUES (?, ?)", capacity, status,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: insert train: %v", models.ErrStoreFailure, err)
		}
		id, _ := res.LastInsertId()
		log.Printf("✅ [TRAINS] Tren creado: id=%d capacidad=%d", id, capacity)
		return &models.Train{ID: id, Capacity: capacity, Status: status}, nil
	}

	id, err := key.Normalize()
	if err != nil {
		return nil, err
	}
	var exists bool
	if err := t.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM trains WHERE id = ?)", id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%w: check train: %v", models.ErrStoreFailure, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: train %d already exists", models.ErrConflict, id)
	}
	if _, err := t.db.ExecContext(ctx,
		"INSERT INTO trains (id, capacity, status) VALUES (?, ?, ?)", id, capacity, status,
	); err != nil {
		return nil, fmt.Errorf("%w: insert train: %v", models.ErrStoreFailure, err)
	}
	log.Printf("✅ [TRAINS] Tren creado: id=%d capacidad=%d", id, capacity)
	return &models.Train{ID: id, Capacity: capacity, Status: status}, nil
}

// GetTrain busca un tren por key.
func (t *Trains) GetTrain(ctx context.Context, key models.Key) (*models.Train, error) {
	id, err := key.Normalize()
	if err != nil {
		return nil, err
	}
	var tr models.Train
	var status string
	err = t.db.QueryRowContext(ctx,
		"SELECT id, capacity, status FROM trains WHERE id = ?", id,
	).Scan(&tr.ID, &tr.Capacity, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: train %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query train: %v", models.ErrStoreFailure, err)
	}
	tr.Status = models.TrainStatus(status)
	return &tr, nil
}

// ListTrains retorna todos los trenes ordenados por id.
func (t *Trains) ListTrains(ctx context.Context) ([]models.Train, error) {
	rows, err := t.db.QueryContext(ctx, "SELECT id, capacity, status FROM trains ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: list trains: %v", models.ErrStoreFailure, err)
	}
	defer rows.Close()

	var list []models.Train
	for rows.Next() {
		var tr models.Train
		var status string
		if err := rows.Scan(&tr.ID, &tr.Capacity, &status); err != nil {
			return nil, fmt.Errorf("%w: scan train: %v", models.ErrStoreFailure, err)
		}
		tr.Status = models.TrainStatus(status)
		list = append(list, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate trains: %v", models.ErrStoreFailure, err)
	}
	return list, nil
}

// GetTrainStatus retorna el estado operacional de un tren.
func (t *Trains) GetTrainStatus(ctx context.Context, key models.Key) (models.TrainStatus, error) {
	tr, err := t.GetTrain(ctx, key)
	if err != nil {
		return "", err
	}
	return tr.Status, nil
}

// UpdateTrain actualiza capacidad y/o estado. Un puntero nil deja el campo
// como está; se puede actualizar uno sin tocar el otro.
func (t *Trains) UpdateTrain(ctx context.Context, key models.Key, capacity *int, status *models.TrainStatus) (*models.Train, error) {
	id, err := key.Normalize()
	if err != nil {
		return nil, err
	}
	if capacity == nil && status == nil {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrInvalidArgument)
	}
	if capacity != nil && *capacity <= 0 {
		return nil, fmt.Errorf("%w: train capacity must be positive, got %d", models.ErrInvalidArgument, *capacity)
	}
	if status != nil {
		if _, err := models.ParseTrainStatus(string(*status)); err != nil {
			return nil, err
		}
	}

	tr, err := t.GetTrain(ctx, key)
	if err != nil {
		return nil, err
	}
	if capacity != nil {
		tr.Capacity = *capacity
	}
	if status != nil {
		tr.Status = *status
	}

	if _, err := t.db.ExecContext(ctx,
		"UPDATE trains SET capacity = ?, status = ? WHERE id = ?",
		tr.Capacity, tr.Status, id,
	); err != nil {
		return nil, fmt.Errorf("%w: update train: %v", models.ErrStoreFailure, err)
	}
	log.Printf("🔄 [TRAINS] Tren %d actualizado: capacidad=%d estado=%s", id, tr.Capacity, tr.Status)
	return tr, nil
}

// DeleteTrain elimina un tren junto con sus schedules, paradas, tickets y
// reservas dependientes, todo en una transacción.
func (t *Trains) DeleteTrain(ctx context.Context, key models.Key) error {
	id, err := key.Normalize()
	if err != nil {
		return err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete train: %v", models.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM trains WHERE id = ?)", id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("%w: check train: %v", models.ErrStoreFailure, err)
	}
	if !exists {
		return fmt.Errorf("%w: train %d", models.ErrNotFound, id)
	}

	steps := []string{
		"DELETE FROM seat_reservations WHERE ticket_id IN (SELECT id FROM tickets WHERE schedule_id IN (SELECT id FROM schedules WHERE train_id = ?))",
		"DELETE FROM tickets WHERE schedule_id IN (SELECT id FROM schedules WHERE train_id = ?)",
		"DELETE FROM schedule_stops WHERE schedule_id IN (SELECT id FROM schedules WHERE train_id = ?)",
		"DELETE FROM schedules WHERE train_id = ?",
		"DELETE FROM trains WHERE id = ?",
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("%w: delete train cascade: %v", models.ErrStoreFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete train: %v", models.ErrStoreFailure, err)
	}
	log.Printf("🗑️ [TRAINS] Tren eliminado: id=%d (cascada completa)", id)
	return nil
}
