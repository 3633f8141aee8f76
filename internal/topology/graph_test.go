package topology

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/trencl/internal/models"
)

func TestMemoryGraphStations(t *testing.T) {
	g := NewMemoryGraph()
	ctx := context.Background()

	if err := g.AddStation(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err := g.StationExists(ctx, 1)
	if err != nil || !exists {
		t.Errorf("station 1 should exist (err=%v)", err)
	}
	exists, _ = g.StationExists(ctx, 99)
	if exists {
		t.Error("station 99 should not exist")
	}
	if err := g.AddStation(1); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate station should be a Conflict, got %v", err)
	}
}

func TestMemoryGraphConnect(t *testing.T) {
	g := NewMemoryGraph()
	ctx := context.Background()
	g.AddStation(1)
	g.AddStation(2)

	if err := g.Connect(Link{From: 1, To: 2, TravelMinutes: 0}); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("non-positive travel time should be InvalidArgument, got %v", err)
	}
	if err := g.Connect(Link{From: 1, To: 5, TravelMinutes: 10}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown endpoint should be NotFound, got %v", err)
	}
	if err := g.Connect(Link{From: 1, To: 2, TravelMinutes: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Aristas dirigidas: 2->1 no existe
	connected, _ := g.AreConnected(ctx, 1, 2)
	if !connected {
		t.Error("1->2 should be connected")
	}
	connected, _ = g.AreConnected(ctx, 2, 1)
	if connected {
		t.Error("2->1 should not be connected (directed edges)")
	}
}

func TestMemoryGraphParallelEdges(t *testing.T) {
	// El diseño no deduplica aristas paralelas entre el mismo par
	g := NewMemoryGraph()
	g.AddStation(1)
	g.AddStation(2)
	g.Connect(Link{From: 1, To: 2, TravelMinutes: 30})
	g.Connect(Link{From: 1, To: 2, TravelMinutes: 45})

	links, err := g.Outgoing(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 parallel edges, got %d", len(links))
	}
	if links[0].TravelMinutes != 30 || links[1].TravelMinutes != 45 {
		t.Error("insertion order not preserved")
	}
}

func TestMemoryGraphStampScheduleTimes(t *testing.T) {
	g := NewMemoryGraph()
	ctx := context.Background()
	g.AddStation(1)
	g.AddStation(2)
	g.Connect(Link{From: 1, To: 2, TravelMinutes: 30})

	dep := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	arr := dep.Add(30 * time.Minute)
	if err := g.StampScheduleTimes(ctx, 1, 2, dep, arr, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links, _ := g.Outgoing(ctx, 1)
	if links[0].Departure == nil || !links[0].Departure.Equal(dep) {
		t.Error("departure time not stamped")
	}
	if links[0].WaitingMinutes != 5 {
		t.Errorf("expected waiting 5, got %d", links[0].WaitingMinutes)
	}

	if err := g.StampScheduleTimes(ctx, 2, 1, dep, arr, 0); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("stamping a missing edge should be NotFound, got %v", err)
	}
}
