package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/topology"
)

func buildGraph(t *testing.T, stations []int64, links []topology.Link) *topology.MemoryGraph {
	t.Helper()
	g := topology.NewMemoryGraph()
	for _, id := range stations {
		if err := g.AddStation(id); err != nil {
			t.Fatalf("add station %d: %v", id, err)
		}
	}
	for _, l := range links {
		if err := g.Connect(l); err != nil {
			t.Fatalf("connect %d->%d: %v", l.From, l.To, err)
		}
	}
	return g
}

func TestSearchSameStationFails(t *testing.T) {
	g := buildGraph(t, []int64{1}, nil)
	engine := NewEngine(g)

	_, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(1), Options{})
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	// También con representaciones distintas de la misma key
	_, err = engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromString("1"), Options{})
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for \"1\" vs 1, got %v", err)
	}
}

func TestSearchNullStationFails(t *testing.T) {
	g := buildGraph(t, []int64{1, 2}, nil)
	engine := NewEngine(g)

	var null models.Key
	_, err := engine.Search(context.Background(), null, models.KeyFromInt(2), Options{})
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for null origin, got %v", err)
	}
}

func TestSearchMissingStationIsNotFound(t *testing.T) {
	g := buildGraph(t, []int64{1}, nil)
	engine := NewEngine(g)

	// Estación ausente es NotFound, no lista vacía: distingue "sin ruta"
	// de "input malo".
	_, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(99), Options{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchDisconnectedStationsEmptyResult(t *testing.T) {
	g := buildGraph(t, []int64{1, 2}, nil)
	engine := NewEngine(g)

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(2), Options{})
	if err != nil {
		t.Fatalf("disconnected stations must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d itineraries", len(got))
	}
}

func TestSearchTwoHopScenario(t *testing.T) {
	// 1->2 (30min), 2->3 (30min), sin arista directa 1->3
	g := buildGraph(t, []int64{1, 2, 3}, []topology.Link{
		{From: 1, To: 2, TravelMinutes: 30},
		{From: 2, To: 3, TravelMinutes: 30},
	})
	engine := NewEngine(g)
	ctx := context.Background()

	for _, sortBy := range []models.SortBy{models.SortByTrainChanges, models.SortByTravelTime} {
		got, err := engine.Search(ctx, models.KeyFromInt(1), models.KeyFromInt(3), Options{SortBy: sortBy, Ascending: true})
		if err != nil {
			t.Fatalf("sort=%s: %v", sortBy, err)
		}
		if len(got) != 1 {
			t.Fatalf("sort=%s: expected exactly 1 itinerary, got %d", sortBy, len(got))
		}
		it := got[0]
		if it.TrainChanges != 1 {
			t.Errorf("sort=%s: expected 1 change (2 legs), got %d", sortBy, it.TrainChanges)
		}
		if it.TravelMinutes != 60 {
			t.Errorf("sort=%s: expected 60 travel minutes, got %d", sortBy, it.TravelMinutes)
		}
		if len(it.Stations) != 3 || it.Stations[0] != 1 || it.Stations[2] != 3 {
			t.Errorf("sort=%s: wrong station sequence %v", sortBy, it.Stations)
		}
	}
}

func triangleGraph(t *testing.T) *topology.MemoryGraph {
	// Triángulo: arista directa pesada 1->3 (90min) y camino liviano de
	// dos saltos 1->2->3 (20+20min). Las métricas cambios vs tiempo
	// de viaje discrepan a propósito.
	return buildGraph(t, []int64{1, 2, 3}, []topology.Link{
		{From: 1, To: 3, TravelMinutes: 90},
		{From: 1, To: 2, TravelMinutes: 20},
		{From: 2, To: 3, TravelMinutes: 20},
	})
}

func TestSearchSortCriteriaDisagree(t *testing.T) {
	engine := NewEngine(triangleGraph(t))
	ctx := context.Background()

	byChanges, err := engine.Search(ctx, models.KeyFromInt(1), models.KeyFromInt(3),
		Options{SortBy: models.SortByTrainChanges, Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	byTime, err := engine.Search(ctx, models.KeyFromInt(1), models.KeyFromInt(3),
		Options{SortBy: models.SortByTravelTime, Ascending: true})
	if err != nil {
		t.Fatal(err)
	}

	if len(byChanges) != 2 || len(byTime) != 2 {
		t.Fatalf("expected 2 itineraries each, got %d and %d", len(byChanges), len(byTime))
	}
	// Por cambios: la directa (0 cambios, 90min) primero
	if byChanges[0].TrainChanges != 0 || byChanges[0].TravelMinutes != 90 {
		t.Errorf("by changes: expected direct edge first, got %+v", byChanges[0])
	}
	// Por tiempo: el camino de dos saltos (40min) primero
	if byTime[0].TravelMinutes != 40 || byTime[0].TrainChanges != 1 {
		t.Errorf("by travel time: expected 2-hop path first, got %+v", byTime[0])
	}
}

func TestSearchDescendingOrder(t *testing.T) {
	engine := NewEngine(triangleGraph(t))

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(3),
		Options{SortBy: models.SortByTravelTime, Ascending: false})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].TravelMinutes != 90 {
		t.Errorf("descending by travel time should put 90min first, got %d", got[0].TravelMinutes)
	}
}

func TestSearchStableTieBreak(t *testing.T) {
	// Dos aristas paralelas con el mismo peso: empatan en todas las
	// métricas y deben quedar en orden de descubrimiento.
	g := buildGraph(t, []int64{1, 2}, []topology.Link{
		{From: 1, To: 2, TravelMinutes: 30, WaitingMinutes: 1},
		{From: 1, To: 2, TravelMinutes: 30, WaitingMinutes: 2},
	})
	engine := NewEngine(g)

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(2),
		Options{SortBy: models.SortByTravelTime, Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 itineraries over parallel edges, got %d", len(got))
	}
	if got[0].WaitingMinutes != 1 || got[1].WaitingMinutes != 2 {
		t.Error("tie break must preserve discovery order")
	}
}

func TestSearchLimitAfterFullSort(t *testing.T) {
	// 4 caminos 1->3 (directa + 3 intermedios); limit 2 debe quedarse con
	// los 2 mejores globales, no con los 2 primeros descubiertos.
	g := buildGraph(t, []int64{1, 2, 3, 4, 5}, []topology.Link{
		{From: 1, To: 3, TravelMinutes: 100},
		{From: 1, To: 2, TravelMinutes: 10},
		{From: 2, To: 3, TravelMinutes: 10},
		{From: 1, To: 4, TravelMinutes: 200},
		{From: 4, To: 3, TravelMinutes: 200},
		{From: 1, To: 5, TravelMinutes: 5},
		{From: 5, To: 3, TravelMinutes: 5},
	})
	engine := NewEngine(g)

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(3),
		Options{SortBy: models.SortByTravelTime, Ascending: true, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 itineraries, got %d", len(got))
	}
	if got[0].TravelMinutes != 10 || got[1].TravelMinutes != 20 {
		t.Errorf("limit must apply after full sort, got %d and %d minutes",
			got[0].TravelMinutes, got[1].TravelMinutes)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	// Estrella de 7 intermedios: 7 caminos, el default debe cortar en 5.
	stations := []int64{1, 9}
	var links []topology.Link
	for i := int64(2); i <= 8; i++ {
		stations = append(stations, i)
		links = append(links,
			topology.Link{From: 1, To: i, TravelMinutes: int(i)},
			topology.Link{From: i, To: 9, TravelMinutes: int(i)},
		)
	}
	engine := NewEngine(buildGraph(t, stations, links))

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(9), Options{Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, len(got))
	}
}

func TestSearchCyclicTopologyTerminates(t *testing.T) {
	// Anillo 1->2->3->1 más salida 3->4: los caminos son simples, el
	// ciclo no se recorre dos veces.
	g := buildGraph(t, []int64{1, 2, 3, 4}, []topology.Link{
		{From: 1, To: 2, TravelMinutes: 10},
		{From: 2, To: 3, TravelMinutes: 10},
		{From: 3, To: 1, TravelMinutes: 10},
		{From: 3, To: 4, TravelMinutes: 10},
	})
	engine := NewEngine(g)

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(4), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 simple path through the ring, got %d", len(got))
	}
	if got[0].TrainChanges != 2 {
		t.Errorf("expected path 1->2->3->4 (2 changes), got %+v", got[0])
	}
}

func TestSearchMaxDepthBound(t *testing.T) {
	// Cadena de 4 aristas con profundidad máxima 3: no hay resultado.
	g := buildGraph(t, []int64{1, 2, 3, 4, 5}, []topology.Link{
		{From: 1, To: 2, TravelMinutes: 10},
		{From: 2, To: 3, TravelMinutes: 10},
		{From: 3, To: 4, TravelMinutes: 10},
		{From: 4, To: 5, TravelMinutes: 10},
	})
	engine := NewEngine(g)
	engine.SetMaxDepth(3)

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(5), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("depth bound 3 should prune the 4-edge path, got %d results", len(got))
	}
}

func TestSearchDateFilterDepartureAnchored(t *testing.T) {
	early := time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)

	g := buildGraph(t, []int64{1, 2, 3}, []topology.Link{
		{From: 1, To: 2, TravelMinutes: 30, Departure: &early, Arrival: &early},
		{From: 1, To: 3, TravelMinutes: 90, Departure: &late, Arrival: &late},
		{From: 2, To: 3, TravelMinutes: 30, Departure: &late, Arrival: &late},
	})
	engine := NewEngine(g)

	date := models.Date{Year: 2024, Month: 6, Day: 1}
	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(3),
		Options{TravelDate: &date, DepartureAnchored: true, Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	// El tramo 1->2 sale antes de la fecha pedida: solo queda la directa.
	if len(got) != 1 || got[0].TrainChanges != 0 {
		t.Errorf("expected only the direct late edge, got %+v", got)
	}
}

func TestSearchDateFilterExcludesUntimedEdges(t *testing.T) {
	// Con filtro activo, una arista sin horario estampado no es elegible.
	g := buildGraph(t, []int64{1, 2}, []topology.Link{
		{From: 1, To: 2, TravelMinutes: 30},
	})
	engine := NewEngine(g)

	date := models.Date{Year: 2024, Month: 6, Day: 1}
	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(2),
		Options{TravelDate: &date, DepartureAnchored: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("untimed edge must be ineligible under a date filter, got %d results", len(got))
	}

	// Sin filtro la misma arista sí aparece.
	got, err = engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(2), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 result without filter, got %d", len(got))
	}
}

func TestSearchWaitingTimeMetric(t *testing.T) {
	g := buildGraph(t, []int64{1, 2, 3}, []topology.Link{
		{From: 1, To: 2, TravelMinutes: 10, WaitingMinutes: 5},
		{From: 2, To: 3, TravelMinutes: 10, WaitingMinutes: 7},
		{From: 1, To: 3, TravelMinutes: 40, WaitingMinutes: 0},
	})
	engine := NewEngine(g)

	got, err := engine.Search(context.Background(), models.KeyFromInt(1), models.KeyFromInt(3),
		Options{SortBy: models.SortByWaitingTime, Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].WaitingMinutes != 0 {
		t.Errorf("expected zero-wait direct edge first, got %+v", got[0])
	}
	if got[1].WaitingMinutes != 12 {
		t.Errorf("expected 12 waiting minutes summed along path, got %d", got[1].WaitingMinutes)
	}
}

func TestEstimatePriceDeterministic(t *testing.T) {
	if EstimatePrice(60, 1) != EstimatePrice(60, 1) {
		t.Error("price model must be deterministic")
	}
	// 2.50 + 0.35*60 + 1.00 = 24.50
	if got := EstimatePrice(60, 1); got != 24.50 {
		t.Errorf("expected 24.50, got %.2f", got)
	}
	if got := EstimatePrice(0, 0); got != 2.50 {
		t.Errorf("expected base price 2.50, got %.2f", got)
	}
	// Más tiempo de viaje nunca abarata
	if EstimatePrice(30, 0) >= EstimatePrice(31, 0) {
		t.Error("price must grow with travel time")
	}
}

func BenchmarkSearchTriangle(b *testing.B) {
	g := topology.NewMemoryGraph()
	for i := int64(1); i <= 3; i++ {
		g.AddStation(i)
	}
	g.Connect(topology.Link{From: 1, To: 3, TravelMinutes: 90})
	g.Connect(topology.Link{From: 1, To: 2, TravelMinutes: 20})
	g.Connect(topology.Link{From: 2, To: 3, TravelMinutes: 20})
	engine := NewEngine(g)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Search(ctx, models.KeyFromInt(1), models.KeyFromInt(3), Options{})
	}
}
