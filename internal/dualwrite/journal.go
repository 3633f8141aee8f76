// ============================================================================
// Dual-Write Journal - TrenCL
// ============================================================================
// Las operaciones que tocan MySQL y Neo4j a la vez (alta de estación,
// conexión de estaciones) no tienen transacción cross-store. El journal
// registra el intent ANTES de tocar cualquier store; si la segunda escritura
// falla se compensa la primera y el intent queda COMPENSATED. Los intents
// PENDING que sobreviven a un crash son el insumo del tooling de reparación.
// ============================================================================

package dualwrite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/trencl/internal/models"
)

// Estados del ciclo de vida de un intent.
const (
	StatusPending     = "PENDING"
	StatusDone        = "DONE"
	StatusCompensated = "COMPENSATED"
	StatusFailed      = "FAILED"
)

// Operaciones registradas.
const (
	OpAddStation      = "add_station"
	OpConnectStations = "connect_stations"
)

// Intent es una fila del journal.
type Intent struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Payload   string    `json:"payload"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal persiste intents de escritura dual en MySQL.
type Journal struct {
	db *sql.DB
}

// NewJournal crea un journal sobre la conexión relacional.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Begin registra un intent PENDING y retorna su id (uuid). Debe llamarse
// antes de escribir en cualquiera de los dos stores.
func (j *Journal) Begin(ctx context.Context, operation string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal intent payload: %v", models.ErrStoreFailure, err)
	}
	id := uuid.NewString()
	_, err = j.db.ExecContext(ctx,
		"INSERT INTO write_intents (id, operation, payload, status) VALUES (?, ?, ?, ?)",
		id, operation, string(body), StatusPending,
	)
	if err != nil {
		return "", fmt.Errorf("%w: record intent: %v", models.ErrStoreFailure, err)
	}
	return id, nil
}

// MarkDone cierra el intent: ambos stores quedaron consistentes.
func (j *Journal) MarkDone(ctx context.Context, id string) error {
	return j.resolve(ctx, id, StatusDone)
}

// MarkCompensated cierra el intent tras deshacer la primera escritura.
func (j *Journal) MarkCompensated(ctx context.Context, id string) error {
	return j.resolve(ctx, id, StatusCompensated)
}

// MarkFailed deja el intent en estado terminal sin compensación posible;
// requiere reparación manual o por tooling.
func (j *Journal) MarkFailed(ctx context.Context, id string) error {
	return j.resolve(ctx, id, StatusFailed)
}

func (j *Journal) resolve(ctx context.Context, id, status string) error {
	res, err := j.db.ExecContext(ctx,
		"UPDATE write_intents SET status = ?, resolved_at = NOW() WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("%w: resolve intent %s: %v", models.ErrStoreFailure, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: intent %s", models.ErrNotFound, id)
	}
	return nil
}

// Pending lista los intents sin resolver, más antiguos primero. Un intent
// PENDING viejo señala una escritura dual interrumpida a mitad de camino.
func (j *Journal) Pending(ctx context.Context) ([]Intent, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, operation, payload, status, created_at
		FROM write_intents
		WHERE status = ?
		ORDER BY created_at ASC`,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending intents: %v", models.ErrStoreFailure, err)
	}
	defer rows.Close()

	var intents []Intent
	for rows.Next() {
		var in Intent
		var payload sql.NullString
		if err := rows.Scan(&in.ID, &in.Operation, &payload, &in.Status, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan pending intent: %v", models.ErrStoreFailure, err)
		}
		in.Payload = payload.String
		intents = append(intents, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pending intents: %v", models.ErrStoreFailure, err)
	}
	return intents, nil
}
