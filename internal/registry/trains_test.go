package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/trencl/internal/models"
)

// Las validaciones de entrada corren antes de tocar MySQL; estos tests usan
// un registro sin conexión.

func TestAddTrainCapacidadInvalida(t *testing.T) {
	r := NewTrains(nil)
	for _, capacity := range []int{0, -5} {
		_, err := r.AddTrain(context.Background(), models.Key{}, capacity, models.TrainOperational)
		if !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("capacidad %d: esperaba ErrInvalidArgument, obtuve %v", capacity, err)
		}
	}
}

func TestAddTrainEstadoInvalido(t *testing.T) {
	r := NewTrains(nil)
	_, err := r.AddTrain(context.Background(), models.Key{}, 100, models.TrainStatus("FLYING"))
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por estado desconocido, obtuve %v", err)
	}
}

func TestAddTrainKeyMala(t *testing.T) {
	r := NewTrains(nil)
	_, err := r.AddTrain(context.Background(), models.KeyFromString("abc"), 100, models.TrainOperational)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por key no numérica, obtuve %v", err)
	}
}

func TestUpdateTrainSinCambios(t *testing.T) {
	r := NewTrains(nil)
	_, err := r.UpdateTrain(context.Background(), models.KeyFromInt(1), nil, nil)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument cuando no hay campos que actualizar, obtuve %v", err)
	}
}

func TestUpdateTrainCapacidadInvalida(t *testing.T) {
	r := NewTrains(nil)
	capacity := -10
	_, err := r.UpdateTrain(context.Background(), models.KeyFromInt(1), &capacity, nil)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por capacidad negativa, obtuve %v", err)
	}
}

func TestUpdateTrainEstadoInvalido(t *testing.T) {
	r := NewTrains(nil)
	status := models.TrainStatus("SWIMMING")
	_, err := r.UpdateTrain(context.Background(), models.KeyFromInt(1), nil, &status)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por estado desconocido, obtuve %v", err)
	}
}

func TestConnectStationsTiempoInvalido(t *testing.T) {
	r := NewStations(nil, nil, nil)
	err := r.ConnectStations(context.Background(), models.KeyFromInt(1), models.KeyFromInt(2), 0)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por tiempo de viaje no positivo, obtuve %v", err)
	}
}

func TestConnectStationsKeyMala(t *testing.T) {
	r := NewStations(nil, nil, nil)
	err := r.ConnectStations(context.Background(), models.KeyFromString(""), models.KeyFromInt(2), 30)
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("esperaba ErrInvalidArgument por key vacía, obtuve %v", err)
	}
}
