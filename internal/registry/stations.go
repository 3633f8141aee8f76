// ============================================================================
// Registro de Estaciones - TrenCL
// ============================================================================
// Las estaciones viven en ambos stores: MySQL guarda los datos y Neo4j la
// conectividad. No hay transacción que cruce los dos, así que cada alta se
// coordina como saga: se anota el intent en el journal, se escribe el primer
// store y, si el segundo falla, se compensa el primero antes de reportar el
// error. Orden por operación:
//
//   AddStation:      MySQL → Neo4j   (compensación: DELETE en MySQL)
//   ConnectStations: Neo4j → MySQL   (compensación: borrar relación por intent)
// ============================================================================

package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/yourorg/trencl/internal/dualwrite"
	"github.com/yourorg/trencl/internal/models"
)

// Topology es la vista del store de grafos que necesita el registro de
// estaciones. La implementa topology.Store.
type Topology interface {
	AddStation(ctx context.Context, id int64, name, location string) error
	RemoveStation(ctx context.Context, id int64) error
	StationExists(ctx context.Context, id int64) (bool, error)
	CreateConnection(ctx context.Context, from, to int64, travelMinutes int, intentID string) error
	RemoveConnectionByIntent(ctx context.Context, intentID string) error
}

// Stations administra estaciones y conexiones sobre ambos stores.
type Stations struct {
	db      *sql.DB
	topo    Topology
	journal *dualwrite.Journal
}

// NewStations crea el registro de estaciones.
func NewStations(db *sql.DB, topo Topology, journal *dualwrite.Journal) *Stations {
	return &Stations{db: db, topo: topo, journal: journal}
}

// AddStation crea una estación en los dos stores. Si key viene vacía el id
// lo asigna el auto-increment; si name viene vacío se genera "Unknown<id>".
// Key y name deben ser únicos.
func (s *Stations) AddStation(ctx context.Context, key models.Key, name, location string) (*models.Station, error) {
	var explicitID int64
	if !key.IsZero() {
		id, err := key.Normalize()
		if err != nil {
			return nil, err
		}
		if id <= 0 {
			return nil, fmt.Errorf("%w: station key must be positive, got %d", models.ErrInvalidArgument, id)
		}
		explicitID = id

		var exists bool
		if err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM train_stations WHERE id = ?)", id,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("%w: check station key: %v", models.ErrStoreFailure, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: station %d already exists", models.ErrConflict, id)
		}
	}
	if name != "" {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM train_stations WHERE name = ?)", name,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("%w: check station name: %v", models.ErrStoreFailure, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: station name %q already exists", models.ErrConflict, name)
		}
	}
	if location == "" {
		location = "Unknown"
	}

	intentID, err := s.journal.Begin(ctx, dualwrite.OpAddStation, map[string]any{
		"key": explicitID, "name": name, "location": location,
	})
	if err != nil {
		return nil, err
	}

	// Primer store: MySQL. Con key explícita el nombre placeholder no hace
	// falta; con auto-increment recién conocemos el id tras el insert.
	var stationID int64
	if explicitID != 0 {
		if name == "" {
			name = fmt.Sprintf("Unknown%d", explicitID)
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO train_stations (id, name, location) VALUES (?, ?, ?)",
			explicitID, name, location,
		); err != nil {
			s.journal.MarkFailed(ctx, intentID)
			return nil, fmt.Errorf("%w: insert station: %v", models.ErrStoreFailure, err)
		}
		stationID = explicitID
	} else {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.journal.MarkFailed(ctx, intentID)
			return nil, fmt.Errorf("%w: begin insert station: %v", models.ErrStoreFailure, err)
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO train_stations (name, location) VALUES (?, ?)",
			// placeholder único mientras no conocemos el id
			"__pending__"+intentID, location,
		)
		if err != nil {
			tx.Rollback()
			s.journal.MarkFailed(ctx, intentID)
			return nil, fmt.Errorf("%w: insert station: %v", models.ErrStoreFailure, err)
		}
		stationID, _ = res.LastInsertId()
		if name == "" {
			name = fmt.Sprintf("Unknown%d", stationID)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE train_stations SET name = ? WHERE id = ?", name, stationID,
		); err != nil {
			tx.Rollback()
			s.journal.MarkFailed(ctx, intentID)
			return nil, fmt.Errorf("%w: name station: %v", models.ErrStoreFailure, err)
		}
		if err := tx.Commit(); err != nil {
			s.journal.MarkFailed(ctx, intentID)
			return nil, fmt.Errorf("%w: commit insert station: %v", models.ErrStoreFailure, err)
		}
	}

	// Segundo store: Neo4j. Si falla, compensamos el insert relacional.
	if err := s.topo.AddStation(ctx, stationID, name, location); err != nil {
		log.Printf("⚠️ [STATIONS] Falla en grafo para estación %d, compensando MySQL (intent=%s)", stationID, intentID)
		if _, derr := s.db.ExecContext(ctx,
			"DELETE FROM train_stations WHERE id = ?", stationID,
		); derr != nil {
			// La compensación también falló: queda FAILED para reparación.
			s.journal.MarkFailed(ctx, intentID)
			return nil, fmt.Errorf("%w: graph write failed and compensation failed: %v / %v", models.ErrStoreFailure, err, derr)
		}
		s.journal.MarkCompensated(ctx, intentID)
		return nil, err
	}

	s.journal.MarkDone(ctx, intentID)
	log.Printf("✅ [STATIONS] Estación creada en ambos stores: %s (id=%d)", name, stationID)
	return &models.Station{ID: stationID, Name: name, Location: location}, nil
}

// GetStation busca una estación por key en MySQL.
func (s *Stations) GetStation(ctx context.Context, key models.Key) (*models.Station, error) {
	id, err := key.Normalize()
	if err != nil {
		return nil, err
	}
	var st models.Station
	err = s.db.QueryRowContext(ctx,
		"SELECT id, name, location FROM train_stations WHERE id = ?", id,
	).Scan(&st.ID, &st.Name, &st.Location)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: station %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query station: %v", models.ErrStoreFailure, err)
	}
	return &st, nil
}

// ListStations retorna todas las estaciones ordenadas por id.
func (s *Stations) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, location FROM train_stations ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list stations: %v", models.ErrStoreFailure, err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Location); err != nil {
			return nil, fmt.Errorf("%w: scan station: %v", models.ErrStoreFailure, err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate stations: %v", models.ErrStoreFailure, err)
	}
	return stations, nil
}

// ConnectStations crea una arista dirigida from→to con su tiempo de viaje.
// Escribe primero el grafo (fuente de verdad para routing) y luego el
// espejo relacional; si el espejo falla se borra la relación por intent.
func (s *Stations) ConnectStations(ctx context.Context, from, to models.Key, travelMinutes int) error {
	fromID, err := from.Normalize()
	if err != nil {
		return err
	}
	toID, err := to.Normalize()
	if err != nil {
		return err
	}
	if travelMinutes <= 0 {
		return fmt.Errorf("%w: travel time must be positive, got %d", models.ErrInvalidArgument, travelMinutes)
	}

	for _, id := range []int64{fromID, toID} {
		ok, err := s.topo.StationExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: station %d", models.ErrNotFound, id)
		}
	}

	intentID, err := s.journal.Begin(ctx, dualwrite.OpConnectStations, map[string]any{
		"from": fromID, "to": toID, "travel_time": travelMinutes,
	})
	if err != nil {
		return err
	}

	// Primer store: Neo4j, con el intent estampado en la relación para
	// poder compensarla sin ambigüedad (las aristas paralelas son legales).
	if err := s.topo.CreateConnection(ctx, fromID, toID, travelMinutes, intentID); err != nil {
		s.journal.MarkFailed(ctx, intentID)
		return err
	}

	// Segundo store: espejo en MySQL.
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO connections (start_station_id, end_station_id, travel_time_minutes, intent_id) VALUES (?, ?, ?, ?)",
		fromID, toID, travelMinutes, intentID,
	); err != nil {
		log.Printf("⚠️ [STATIONS] Falla en espejo MySQL para conexión %d→%d, compensando grafo (intent=%s)", fromID, toID, intentID)
		if cerr := s.topo.RemoveConnectionByIntent(ctx, intentID); cerr != nil {
			s.journal.MarkFailed(ctx, intentID)
			return fmt.Errorf("%w: mirror write failed and compensation failed: %v / %v", models.ErrStoreFailure, err, cerr)
		}
		s.journal.MarkCompensated(ctx, intentID)
		return fmt.Errorf("%w: mirror connection: %v", models.ErrStoreFailure, err)
	}

	s.journal.MarkDone(ctx, intentID)
	log.Printf("✅ [STATIONS] Conexión %d→%d creada (%d min)", fromID, toID, travelMinutes)
	return nil
}
