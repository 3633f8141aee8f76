// ============================================================================
// Topology Store - TrenCL
// ============================================================================
// Cliente Neo4j que posee el grafo de conectividad entre estaciones.
// Nodos (:Station {id, name, location}) y relaciones dirigidas
// [:CONNECTED_TO {travel_time, intent_id, departure_time, arrival_time,
// waiting_time}]. Todas las queries usan parámetros bound, nunca
// interpolación textual.
// ============================================================================

package topology

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/yourorg/trencl/internal/models"
)

// Store es el TopologyStore respaldado por Neo4j.
type Store struct {
	driver neo4j.DriverWithContext
}

// Connect crea el driver Neo4j usando env vars (NEO4J_URI, NEO4J_USER,
// NEO4J_PASS) y verifica conectividad.
func Connect(ctx context.Context) (*Store, error) {
	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	if uri == "" {
		uri = "bolt://127.0.0.1:7687"
	}
	user := os.Getenv("NEO4J_USER")
	if user == "" {
		user = "neo4j"
	}
	pass := os.Getenv("NEO4J_PASS")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, fmt.Errorf("topology: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("topology: verify connectivity: %w", err)
	}
	return &Store{driver: driver}, nil
}

// Close libera el driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{})
}

// AddStation crea el nodo de la estación.
func (s *Store) AddStation(ctx context.Context, id int64, name, location string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		"CREATE (s:Station {id: $station_id, name: $name, location: $location})",
		map[string]any{"station_id": id, "name": name, "location": location},
	)
	if err != nil {
		return fmt.Errorf("%w: add station %d: %v", models.ErrStoreFailure, id, err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("%w: add station %d: %v", models.ErrStoreFailure, id, err)
	}
	if summary.Counters().NodesCreated() == 0 {
		return fmt.Errorf("%w: station node %d was not created", models.ErrStoreFailure, id)
	}
	return nil
}

// RemoveStation borra el nodo y sus relaciones. Se usa solo como
// compensación del saga; la creación de estaciones es la única vía normal.
func (s *Store) RemoveStation(ctx context.Context, id int64) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		"MATCH (s:Station {id: $station_id}) DETACH DELETE s",
		map[string]any{"station_id": id},
	)
	if err != nil {
		return fmt.Errorf("%w: remove station %d: %v", models.ErrStoreFailure, id, err)
	}
	return nil
}

// StationExists implementa Graph.
func (s *Store) StationExists(ctx context.Context, id int64) (bool, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		"MATCH (s:Station {id: $station_id}) RETURN s.id LIMIT 1",
		map[string]any{"station_id": id},
	)
	if err != nil {
		return false, fmt.Errorf("%w: station lookup %d: %v", models.ErrStoreFailure, id, err)
	}
	exists := result.Next(ctx)
	if err := result.Err(); err != nil {
		return false, fmt.Errorf("%w: station lookup %d: %v", models.ErrStoreFailure, id, err)
	}
	return exists, nil
}

// CreateConnection crea la relación dirigida from->to. El intent_id queda
// en la relación para poder compensarla si el espejo relacional falla.
func (s *Store) CreateConnection(ctx context.Context, from, to int64, travelMinutes int, intentID string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (start:Station {id: $start_point}), (end:Station {id: $end_point})
		CREATE (start)-[:CONNECTED_TO {travel_time: $travel_time, intent_id: $intent_id}]->(end)`,
		map[string]any{
			"start_point": from,
			"end_point":   to,
			"travel_time": travelMinutes,
			"intent_id":   intentID,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: connect %d->%d: %v", models.ErrStoreFailure, from, to, err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("%w: connect %d->%d: %v", models.ErrStoreFailure, from, to, err)
	}
	if summary.Counters().RelationshipsCreated() == 0 {
		return fmt.Errorf("%w: connect %d->%d created no relationship", models.ErrStoreFailure, from, to)
	}
	return nil
}

// RemoveConnectionByIntent borra la relación creada bajo un intent
// específico (compensación del saga).
func (s *Store) RemoveConnectionByIntent(ctx context.Context, intentID string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		"MATCH ()-[r:CONNECTED_TO {intent_id: $intent_id}]->() DELETE r",
		map[string]any{"intent_id": intentID},
	)
	if err != nil {
		return fmt.Errorf("%w: remove connection intent %s: %v", models.ErrStoreFailure, intentID, err)
	}
	return nil
}

// AreConnected indica si existe una arista directa from->to.
func (s *Store) AreConnected(ctx context.Context, from, to int64) (bool, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:Station {id: $start_point})-[:CONNECTED_TO]->(:Station {id: $end_point})
		RETURN 1 LIMIT 1`,
		map[string]any{"start_point": from, "end_point": to},
	)
	if err != nil {
		return false, fmt.Errorf("%w: connectivity check %d->%d: %v", models.ErrStoreFailure, from, to, err)
	}
	connected := result.Next(ctx)
	if err := result.Err(); err != nil {
		return false, fmt.Errorf("%w: connectivity check %d->%d: %v", models.ErrStoreFailure, from, to, err)
	}
	return connected, nil
}

// Outgoing implementa Graph: todas las aristas salientes de una estación.
// Los horarios se guardan como strings RFC3339 en la relación.
func (s *Store) Outgoing(ctx context.Context, from int64) ([]Link, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:Station {id: $start_point})-[r:CONNECTED_TO]->(t:Station)
		RETURN t.id AS to_id, r.travel_time AS travel_time,
		       r.waiting_time AS waiting_time,
		       r.departure_time AS departure_time, r.arrival_time AS arrival_time`,
		map[string]any{"start_point": from},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: outgoing %d: %v", models.ErrStoreFailure, from, err)
	}

	var links []Link
	for result.Next(ctx) {
		rec := result.Record()
		link := Link{From: from}
		if v, ok := rec.Get("to_id"); ok {
			if id, ok := v.(int64); ok {
				link.To = id
			}
		}
		if v, ok := rec.Get("travel_time"); ok {
			if minutes, ok := v.(int64); ok {
				link.TravelMinutes = int(minutes)
			}
		}
		if v, ok := rec.Get("waiting_time"); ok {
			if minutes, ok := v.(int64); ok {
				link.WaitingMinutes = int(minutes)
			}
		}
		link.Departure = parseStampedTime(rec, "departure_time")
		link.Arrival = parseStampedTime(rec, "arrival_time")
		links = append(links, link)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: outgoing %d: %v", models.ErrStoreFailure, from, err)
	}
	return links, nil
}

// StampScheduleTimes copia horarios de un schedule sobre las aristas
// from->to, para que la búsqueda filtrada por fecha tenga datos de tiempo.
func (s *Store) StampScheduleTimes(ctx context.Context, from, to int64, departure, arrival time.Time, waitingMinutes int) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:Station {id: $start_point})-[r:CONNECTED_TO]->(:Station {id: $end_point})
		SET r.departure_time = $departure_time,
		    r.arrival_time = $arrival_time,
		    r.waiting_time = $waiting_time`,
		map[string]any{
			"start_point":    from,
			"end_point":      to,
			"departure_time": departure.UTC().Format(time.RFC3339),
			"arrival_time":   arrival.UTC().Format(time.RFC3339),
			"waiting_time":   waitingMinutes,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: stamp times %d->%d: %v", models.ErrStoreFailure, from, to, err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("%w: stamp times %d->%d: %v", models.ErrStoreFailure, from, to, err)
	}
	if summary.Counters().PropertiesSet() == 0 {
		return fmt.Errorf("%w: no connection %d->%d to stamp", models.ErrNotFound, from, to)
	}
	return nil
}

// CountStations retorna el total de nodos de estación (para /api/status).
func (s *Store) CountStations(ctx context.Context) (int64, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (s:Station) RETURN count(s) AS total", nil)
	if err != nil {
		return 0, fmt.Errorf("%w: count stations: %v", models.ErrStoreFailure, err)
	}
	rec, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count stations: %v", models.ErrStoreFailure, err)
	}
	if v, ok := rec.Get("total"); ok {
		if n, ok := v.(int64); ok {
			return n, nil
		}
	}
	return 0, nil
}

func parseStampedTime(rec *neo4j.Record, field string) *time.Time {
	v, ok := rec.Get(field)
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
