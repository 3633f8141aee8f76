package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/topology"
)

// Las validaciones corren antes de tocar MySQL, así que estos tests usan un
// grafo en memoria y un *sql.DB nil que nunca se alcanza.

func triangleTopo(t *testing.T) *topology.MemoryGraph {
	t.Helper()
	g := topology.NewMemoryGraph()
	for id := int64(1); id <= 3; id++ {
		if err := g.AddStation(id); err != nil {
			t.Fatalf("AddStation(%d): %v", id, err)
		}
	}
	if err := g.Connect(topology.Link{From: 1, To: 2, TravelMinutes: 30}); err != nil {
		t.Fatalf("Connect(1,2): %v", err)
	}
	if err := g.Connect(topology.Link{From: 2, To: 3, TravelMinutes: 45}); err != nil {
		t.Fatalf("Connect(2,3): %v", err)
	}
	return g
}

func TestCreateScheduleMuyPocasParadas(t *testing.T) {
	c := NewCatalog(nil, triangleTopo(t))
	_, err := c.CreateSchedule(context.Background(), models.Key{}, 8, 0,
		[]Stop{{Station: models.KeyFromInt(1)}},
		models.Date{Year: 2026, Month: 1, Day: 1},
		models.Date{Year: 2026, Month: 1, Day: 31},
	)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por <2 paradas, obtuve %v", err)
	}
}

func TestCreateScheduleVentanaInvertida(t *testing.T) {
	c := NewCatalog(nil, triangleTopo(t))
	_, err := c.CreateSchedule(context.Background(), models.Key{}, 8, 0,
		[]Stop{{Station: models.KeyFromInt(1)}, {Station: models.KeyFromInt(2)}},
		models.Date{Year: 2026, Month: 2, Day: 1},
		models.Date{Year: 2026, Month: 1, Day: 1},
	)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por ventana invertida, obtuve %v", err)
	}
}

func TestCreateScheduleFechaInvalida(t *testing.T) {
	c := NewCatalog(nil, triangleTopo(t))
	_, err := c.CreateSchedule(context.Background(), models.Key{}, 8, 0,
		[]Stop{{Station: models.KeyFromInt(1)}, {Station: models.KeyFromInt(2)}},
		models.Date{Year: 2026, Month: 2, Day: 30},
		models.Date{Year: 2026, Month: 3, Day: 1},
	)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por fecha inexistente, obtuve %v", err)
	}
}

func TestCreateScheduleHoraInvalida(t *testing.T) {
	c := NewCatalog(nil, triangleTopo(t))
	for _, tc := range [][2]int{{24, 0}, {-1, 0}, {8, 60}, {8, -5}} {
		_, err := c.CreateSchedule(context.Background(), models.Key{}, tc[0], tc[1],
			[]Stop{{Station: models.KeyFromInt(1)}, {Station: models.KeyFromInt(2)}},
			models.Date{Year: 2026, Month: 1, Day: 1},
			models.Date{Year: 2026, Month: 1, Day: 31},
		)
		if !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("hora %02d:%02d: esperaba ErrInvalidArgument, obtuve %v", tc[0], tc[1], err)
		}
	}
}

func TestCreateScheduleParadasNoConectadas(t *testing.T) {
	c := NewCatalog(nil, triangleTopo(t))
	// 1→3 no tiene arista directa: la conectividad es por par consecutivo,
	// no por alcanzabilidad.
	_, err := c.CreateSchedule(context.Background(), models.Key{}, 8, 0,
		[]Stop{{Station: models.KeyFromInt(1)}, {Station: models.KeyFromInt(3)}},
		models.Date{Year: 2026, Month: 1, Day: 1},
		models.Date{Year: 2026, Month: 1, Day: 31},
	)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por paradas no conectadas, obtuve %v", err)
	}
}

func TestCreateScheduleEsperaNegativa(t *testing.T) {
	c := NewCatalog(nil, triangleTopo(t))
	_, err := c.CreateSchedule(context.Background(), models.Key{}, 8, 0,
		[]Stop{{Station: models.KeyFromInt(1)}, {Station: models.KeyFromInt(2), WaitingMinutes: -10}},
		models.Date{Year: 2026, Month: 1, Day: 1},
		models.Date{Year: 2026, Month: 1, Day: 31},
	)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por espera negativa, obtuve %v", err)
	}
}

func TestCreateScheduleKeyMala(t *testing.T) {
	// db nil: la key del tren se rechaza junto al resto de las
	// precondiciones, antes de abrir la transacción.
	c := NewCatalog(nil, triangleTopo(t))
	for _, key := range []models.Key{models.KeyFromString("abc"), models.KeyFromString("")} {
		_, err := c.CreateSchedule(context.Background(), key, 8, 0,
			[]Stop{{Station: models.KeyFromInt(1)}, {Station: models.KeyFromInt(2)}},
			models.Date{Year: 2026, Month: 1, Day: 1},
			models.Date{Year: 2026, Month: 1, Day: 31},
		)
		if !errors.Is(err, models.ErrInvalidArgument) {
			t.Fatalf("esperaba ErrInvalidArgument por key %v, obtuve %v", key, err)
		}
	}
}

func TestLegTravelMinutesEligeElMenor(t *testing.T) {
	g := triangleTopo(t)
	ctx := context.Background()
	// Arista paralela más rápida entre 1 y 2.
	if err := g.Connect(topology.Link{From: 1, To: 2, TravelMinutes: 20}); err != nil {
		t.Fatalf("Connect paralelo: %v", err)
	}
	c := NewCatalog(nil, g)
	minutes, err := c.legTravelMinutes(ctx, 1, 2)
	if err != nil {
		t.Fatalf("legTravelMinutes: %v", err)
	}
	if minutes != 20 {
		t.Errorf("esperaba el tramo más rápido (20 min), obtuve %d", minutes)
	}
}

func TestEstampadoDeHorarios(t *testing.T) {
	// Verifica la aritmética de horarios sobre el grafo en memoria sin
	// pasar por MySQL: salida 08:00, tramo de 30 min, espera 10, tramo 45.
	g := triangleTopo(t)
	ctx := context.Background()
	dep := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	if err := g.StampScheduleTimes(ctx, 1, 2, dep, dep.Add(30*time.Minute), 10); err != nil {
		t.Fatalf("StampScheduleTimes: %v", err)
	}
	links, err := g.Outgoing(ctx, 1)
	if err != nil {
		t.Fatalf("Outgoing: %v", err)
	}
	if len(links) != 1 || links[0].Departure == nil || !links[0].Departure.Equal(dep) {
		t.Fatalf("la arista 1→2 no quedó estampada: %+v", links)
	}
	if links[0].WaitingMinutes != 10 {
		t.Errorf("espera estampada = %d, esperaba 10", links[0].WaitingMinutes)
	}
}
