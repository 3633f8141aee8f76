package topology

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourorg/trencl/internal/models"
)

// Link es una arista dirigida del grafo de estaciones. Los campos de tiempo
// quedan en nil hasta que algún schedule estampa horarios sobre la arista.
type Link struct {
	From           int64
	To             int64
	TravelMinutes  int
	WaitingMinutes int
	Departure      *time.Time
	Arrival        *time.Time
}

// Graph es la vista de solo lectura que consume el motor de búsqueda.
// La implementan el store Neo4j y MemoryGraph.
type Graph interface {
	StationExists(ctx context.Context, id int64) (bool, error)
	Outgoing(ctx context.Context, from int64) ([]Link, error)
}

// MemoryGraph es un grafo en memoria con la misma semántica que el store
// Neo4j: aristas dirigidas, paralelas permitidas, orden de inserción
// preservado. Se usa en tests y en el modo demo del CLI.
type MemoryGraph struct {
	mu       sync.RWMutex
	stations map[int64]bool
	adjacent map[int64][]Link
}

// NewMemoryGraph crea un grafo vacío.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		stations: make(map[int64]bool),
		adjacent: make(map[int64][]Link),
	}
}

// AddStation registra una estación. Duplicados son un Conflict.
func (g *MemoryGraph) AddStation(id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stations[id] {
		return fmt.Errorf("%w: station %d already exists", models.ErrConflict, id)
	}
	g.stations[id] = true
	return nil
}

// Connect agrega una arista dirigida. Ambas estaciones deben existir y el
// tiempo de viaje debe ser positivo.
func (g *MemoryGraph) Connect(link Link) error {
	if link.TravelMinutes <= 0 {
		return fmt.Errorf("%w: travel time must be positive", models.ErrInvalidArgument)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stations[link.From] {
		return fmt.Errorf("%w: station %d", models.ErrNotFound, link.From)
	}
	if !g.stations[link.To] {
		return fmt.Errorf("%w: station %d", models.ErrNotFound, link.To)
	}
	g.adjacent[link.From] = append(g.adjacent[link.From], link)
	return nil
}

// StationExists implementa Graph.
func (g *MemoryGraph) StationExists(_ context.Context, id int64) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stations[id], nil
}

// Outgoing implementa Graph. Retorna una copia en orden de inserción.
func (g *MemoryGraph) Outgoing(_ context.Context, from int64) ([]Link, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	links := g.adjacent[from]
	out := make([]Link, len(links))
	copy(out, links)
	return out, nil
}

// AreConnected indica si existe una arista directa from->to.
func (g *MemoryGraph) AreConnected(_ context.Context, from, to int64) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, l := range g.adjacent[from] {
		if l.To == to {
			return true, nil
		}
	}
	return false, nil
}

// StampScheduleTimes copia horarios de un schedule sobre la arista from->to.
func (g *MemoryGraph) StampScheduleTimes(_ context.Context, from, to int64, departure, arrival time.Time, waitingMinutes int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	stamped := false
	links := g.adjacent[from]
	for i := range links {
		if links[i].To == to {
			dep, arr := departure, arrival
			links[i].Departure = &dep
			links[i].Arrival = &arr
			links[i].WaitingMinutes = waitingMinutes
			stamped = true
		}
	}
	if !stamped {
		return fmt.Errorf("%w: no connection %d->%d", models.ErrNotFound, from, to)
	}
	return nil
}
