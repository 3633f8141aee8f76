// ============================================================================
// Connection Search Engine - TrenCL
// ============================================================================
// Enumera todos los caminos simples dirigidos entre dos estaciones sobre el
// grafo de topología, calcula cuatro métricas por camino y retorna una lista
// ordenada y acotada. Solo lectura: nunca escribe en ningún store.
// ============================================================================

package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/topology"
)

const (
	// DefaultLimit es el máximo de itinerarios retornados si el caller no
	// pide otro.
	DefaultLimit = 5

	// DefaultMaxDepth acota la profundidad de la exploración (en aristas)
	// para que topologías cíclicas no exploten. Los caminos son simples,
	// así que la terminación está garantizada igual; el límite corta el
	// costo en grafos densos.
	DefaultMaxDepth = 8
)

// Options controla el filtro temporal, el criterio de orden y el límite de
// una búsqueda.
type Options struct {
	// TravelDate filtra aristas por horario estampado. Nil = sin filtro.
	TravelDate *models.Date
	// DepartureAnchored: true compara departure_time >= fecha;
	// false compara arrival_time <= fin del día.
	DepartureAnchored bool
	SortBy            models.SortBy
	Ascending         bool
	Limit             int
}

// Engine es el motor de búsqueda de conexiones.
type Engine struct {
	graph    topology.Graph
	maxDepth int
}

// NewEngine crea un motor sobre cualquier implementación de Graph.
func NewEngine(graph topology.Graph) *Engine {
	return &Engine{graph: graph, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth ajusta la cota de profundidad (aristas por camino).
func (e *Engine) SetMaxDepth(depth int) {
	if depth > 0 {
		e.maxDepth = depth
	}
}

// Search explora los caminos simples origen->destino y retorna itinerarios
// puntuados, ordenados por el criterio elegido con empates estables por
// orden de descubrimiento.
//
// Origen y destino inexistentes son NotFound (distinto de "sin ruta", que
// es lista vacía). Origen == destino o keys nulas son InvalidArgument.
func (e *Engine) Search(ctx context.Context, origin, destination models.Key, opts Options) ([]models.Itinerary, error) {
	from, err := origin.Normalize()
	if err != nil {
		return nil, fmt.Errorf("starting station: %w", err)
	}
	to, err := destination.Normalize()
	if err != nil {
		return nil, fmt.Errorf("ending station: %w", err)
	}
	if from == to {
		return nil, fmt.Errorf("%w: starting and ending stations are the same", models.ErrInvalidArgument)
	}

	for _, id := range []int64{from, to} {
		exists, err := e.graph.StationExists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: station %d does not exist", models.ErrNotFound, id)
		}
	}

	visited := map[int64]bool{from: true}
	var path []topology.Link
	var found []models.Itinerary

	if err := e.explore(ctx, from, to, visited, path, &found, opts); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	sortItineraries(found, opts.SortBy, opts.Ascending)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

// explore hace DFS sobre caminos simples en orden de descubrimiento.
func (e *Engine) explore(ctx context.Context, current, target int64, visited map[int64]bool, path []topology.Link, found *[]models.Itinerary, opts Options) error {
	if len(path) >= e.maxDepth {
		return nil
	}
	links, err := e.graph.Outgoing(ctx, current)
	if err != nil {
		return err
	}
	for _, link := range links {
		if visited[link.To] {
			continue
		}
		if !eligible(link, opts) {
			continue
		}
		path = append(path, link)
		if link.To == target {
			*found = append(*found, buildItinerary(path))
		} else {
			visited[link.To] = true
			if err := e.explore(ctx, link.To, target, visited, path, found, opts); err != nil {
				return err
			}
			delete(visited, link.To)
		}
		path = path[:len(path)-1]
	}
	return nil
}

// eligible aplica el filtro temporal. El filtro se ancla a horarios de
// schedule sobre la arista: sin filtro todo pasa; con filtro, una arista
// sin el horario relevante no es elegible.
func eligible(link topology.Link, opts Options) bool {
	if opts.TravelDate == nil {
		return true
	}
	anchor := opts.TravelDate.Time()
	if opts.DepartureAnchored {
		return link.Departure != nil && !link.Departure.Before(anchor)
	}
	endOfDay := anchor.Add(24 * time.Hour)
	return link.Arrival != nil && link.Arrival.Before(endOfDay)
}

func buildItinerary(path []topology.Link) models.Itinerary {
	it := models.Itinerary{
		Stations: make([]int64, 0, len(path)+1),
		Legs:     make([]models.Leg, 0, len(path)),
	}
	it.Stations = append(it.Stations, path[0].From)
	for _, link := range path {
		it.Stations = append(it.Stations, link.To)
		it.Legs = append(it.Legs, models.Leg{
			From:           link.From,
			To:             link.To,
			TravelMinutes:  link.TravelMinutes,
			WaitingMinutes: link.WaitingMinutes,
			Departure:      link.Departure,
			Arrival:        link.Arrival,
		})
		it.TravelMinutes += link.TravelMinutes
		it.WaitingMinutes += link.WaitingMinutes
	}
	it.TrainChanges = len(path) - 1
	it.EstimatedPrice = EstimatePrice(it.TravelMinutes, it.TrainChanges)
	return it
}

// EstimatePrice es el modelo de precio del sistema: determinístico y
// proporcional al tiempo de viaje, con recargo por cambio de tren.
// Base 2.50 + 0.35 por minuto + 1.00 por cambio, redondeado a centavos.
func EstimatePrice(travelMinutes, trainChanges int) float64 {
	price := 2.50 + 0.35*float64(travelMinutes) + 1.00*float64(trainChanges)
	return math.Round(price*100) / 100
}

func metricValue(it models.Itinerary, by models.SortBy) float64 {
	switch by {
	case models.SortByTrainChanges:
		return float64(it.TrainChanges)
	case models.SortByWaitingTime:
		return float64(it.WaitingMinutes)
	case models.SortByEstimatedPrice:
		return it.EstimatedPrice
	default:
		return float64(it.TravelMinutes)
	}
}

// sortItineraries ordena por la métrica elegida. SliceStable preserva el
// orden de descubrimiento en los empates.
func sortItineraries(list []models.Itinerary, by models.SortBy, ascending bool) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := metricValue(list[i], by), metricValue(list[j], by)
		if ascending {
			return a < b
		}
		return a > b
	})
}
