// ============================================================================
// Catálogo de Schedules - TrenCL
// ============================================================================
// Un schedule es la corrida programada de un tren: una secuencia ordenada de
// paradas con tiempos de espera, anclada a una hora de salida y vigente en
// una ventana de fechas. Toda validación (paradas, ventana, conectividad)
// corre ANTES de tocar el store relacional; el insert de cabecera y paradas
// es una sola transacción.
// ============================================================================

package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/topology"
)

// Capacidad por defecto cuando el schedule auto-crea su tren.
const defaultTrainCapacity = 100

// Stop es una parada solicitada: estación más minutos de espera en ella.
type Stop struct {
	Station        models.Key `json:"station"`
	WaitingMinutes int        `json:"waiting_minutes"`
}

// Topo es la vista del grafo que necesita el catálogo: conectividad y
// estampado de horarios sobre las aristas. La implementan topology.Store y
// topology.MemoryGraph.
type Topo interface {
	AreConnected(ctx context.Context, from, to int64) (bool, error)
	Outgoing(ctx context.Context, from int64) ([]topology.Link, error)
	StampScheduleTimes(ctx context.Context, from, to int64, departure, arrival time.Time, waitingMinutes int) error
}

// Catalog crea y consulta schedules.
type Catalog struct {
	db   *sql.DB
	topo Topo
}

// NewCatalog crea el catálogo.
func NewCatalog(db *sql.DB, topo Topo) *Catalog {
	return &Catalog{db: db, topo: topo}
}

// CreateSchedule registra una corrida. Requiere al menos 2 paradas, una
// ventana [from, until] válida y que cada par consecutivo de paradas esté
// conectado en el grafo. Si trainKey viene vacía se auto-crea un tren
// operacional con capacidad por defecto; si viene seteada el tren debe
// existir. El schedule es inmutable una vez creado.
func (c *Catalog) CreateSchedule(ctx context.Context, trainKey models.Key, startHour, startMinute int, stops []Stop, from, until models.Date) (*models.Schedule, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: schedule needs at least 2 stops, got %d", models.ErrInvalidArgument, len(stops))
	}
	if startHour < 0 || startHour > 23 || startMinute < 0 || startMinute > 59 {
		return nil, fmt.Errorf("%w: invalid start time %02d:%02d", models.ErrInvalidArgument, startHour, startMinute)
	}
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := until.Validate(); err != nil {
		return nil, err
	}
	if from.After(until) {
		return nil, fmt.Errorf("%w: validity window %s..%s is inverted", models.ErrInvalidArgument, from, until)
	}

	stationIDs := make([]int64, len(stops))
	for i, stop := range stops {
		id, err := stop.Station.Normalize()
		if err != nil {
			return nil, err
		}
		if stop.WaitingMinutes < 0 {
			return nil, fmt.Errorf("%w: negative waiting time at station %d", models.ErrInvalidArgument, id)
		}
		stationIDs[i] = id
	}

	trainID := int64(0)
	hasTrain := !trainKey.IsZero()
	if hasTrain {
		id, err := trainKey.Normalize()
		if err != nil {
			return nil, err
		}
		trainID = id
	}

	// Conectividad y tiempos de viaje por tramo, antes de escribir nada.
	legMinutes := make([]int, len(stationIDs)-1)
	for i := 0; i < len(stationIDs)-1; i++ {
		minutes, err := c.legTravelMinutes(ctx, stationIDs[i], stationIDs[i+1])
		if err != nil {
			return nil, err
		}
		legMinutes[i] = minutes
	}

	departure := from.Time().Add(time.Duration(startHour)*time.Hour + time.Duration(startMinute)*time.Minute)
	arrival := departure
	for i, minutes := range legMinutes {
		arrival = arrival.Add(time.Duration(minutes) * time.Minute)
		if i < len(legMinutes)-1 {
			// La espera de la última parada no corre: el viaje ya terminó.
			arrival = arrival.Add(time.Duration(stops[i+1].WaitingMinutes) * time.Minute)
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin create schedule: %v", models.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	trainID, err = c.resolveTrain(ctx, tx, hasTrain, trainID)
	if err != nil {
		return nil, err
	}

	sched := &models.Schedule{
		TrainID:        trainID,
		StartStationID: stationIDs[0],
		EndStationID:   stationIDs[len(stationIDs)-1],
		DepartureTime:  fmt.Sprintf("%02d:%02d", startHour, startMinute),
		DepartureDate:  from,
		ArrivalTime:    arrival.Format("15:04"),
		ArrivalDate:    models.Date{Year: arrival.Year(), Month: int(arrival.Month()), Day: arrival.Day()},
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO schedules
			(train_id, start_train_station_id, end_train_station_id,
			 departure_time, departure_date, arrival_time, arrival_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sched.TrainID, sched.StartStationID, sched.EndStationID,
		sched.DepartureTime, sched.DepartureDate.String(),
		sched.ArrivalTime, sched.ArrivalDate.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert schedule: %v", models.ErrStoreFailure, err)
	}
	sched.ID, _ = res.LastInsertId()

	for i, stop := range stops {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_stops (schedule_id, station_id, stop_order, waiting_time)
			VALUES (?, ?, ?, ?)`,
			sched.ID, stationIDs[i], i, stop.WaitingMinutes,
		); err != nil {
			return nil, fmt.Errorf("%w: insert schedule stop: %v", models.ErrStoreFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit schedule: %v", models.ErrStoreFailure, err)
	}

	// Enriquecimiento post-commit: estampar horarios sobre las aristas para
	// que la búsqueda pueda filtrar por fecha. Best-effort, no revierte el
	// schedule ya persistido.
	cursor := departure
	for i := 0; i < len(stationIDs)-1; i++ {
		legArrival := cursor.Add(time.Duration(legMinutes[i]) * time.Minute)
		if err := c.topo.StampScheduleTimes(ctx, stationIDs[i], stationIDs[i+1], cursor, legArrival, stops[i+1].WaitingMinutes); err != nil {
			log.Printf("⚠️ [SCHEDULES] No se pudo estampar horario en arista %d→%d: %v", stationIDs[i], stationIDs[i+1], err)
		}
		cursor = legArrival.Add(time.Duration(stops[i+1].WaitingMinutes) * time.Minute)
	}

	log.Printf("✅ [SCHEDULES] Schedule %d creado: tren=%d %d paradas, sale %s %s",
		sched.ID, trainID, len(stops), sched.DepartureDate, sched.DepartureTime)
	return sched, nil
}

// legTravelMinutes verifica que exista la arista dirigida y retorna su
// tiempo de viaje (el menor, si hay aristas paralelas).
func (c *Catalog) legTravelMinutes(ctx context.Context, from, to int64) (int, error) {
	connected, err := c.topo.AreConnected(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if !connected {
		return 0, fmt.Errorf("%w: stations %d and %d are not connected", models.ErrInvalidArgument, from, to)
	}
	links, err := c.topo.Outgoing(ctx, from)
	if err != nil {
		return 0, err
	}
	best := 0
	for _, link := range links {
		if link.To != to {
			continue
		}
		if best == 0 || link.TravelMinutes < best {
			best = link.TravelMinutes
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("%w: stations %d and %d are not connected", models.ErrInvalidArgument, from, to)
	}
	return best, nil
}

// resolveTrain retorna el id del tren del schedule, auto-creándolo cuando
// no viene key. El id ya llega normalizado por CreateSchedule.
func (c *Catalog) resolveTrain(ctx context.Context, tx *sql.Tx, hasKey bool, id int64) (int64, error) {
	if !hasKey {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO trains (capacity, status) VALUES (?, ?)",
			defaultTrainCapacity, models.TrainOperational,
		)
		if err != nil {
			return 0, fmt.Errorf("%w: auto-create train: %v", models.ErrStoreFailure, err)
		}
		id, _ := res.LastInsertId()
		log.Printf("🚆 [SCHEDULES] Tren auto-creado para schedule: id=%d", id)
		return id, nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM trains WHERE id = ?)", id,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("%w: check train: %v", models.ErrStoreFailure, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: train %d", models.ErrNotFound, id)
	}
	return id, nil
}

// ListSchedules retorna todas las corridas ordenadas por id.
func (c *Catalog) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, train_id, start_train_station_id, end_train_station_id,
		       departure_time, departure_date, arrival_time, arrival_date
		FROM schedules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list schedules: %v", models.ErrStoreFailure, err)
	}
	defer rows.Close()

	var list []models.Schedule
	for rows.Next() {
		var sched models.Schedule
		var depDate, arrDate time.Time
		if err := rows.Scan(&sched.ID, &sched.TrainID, &sched.StartStationID, &sched.EndStationID,
			&sched.DepartureTime, &depDate, &sched.ArrivalTime, &arrDate); err != nil {
			return nil, fmt.Errorf("%w: scan schedule: %v", models.ErrStoreFailure, err)
		}
		sched.DepartureDate = models.Date{Year: depDate.Year(), Month: int(depDate.Month()), Day: depDate.Day()}
		sched.ArrivalDate = models.Date{Year: arrDate.Year(), Month: int(arrDate.Month()), Day: arrDate.Day()}
		list = append(list, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate schedules: %v", models.ErrStoreFailure, err)
	}
	return list, nil
}

// GetSchedule busca un schedule por id con sus paradas ordenadas.
func (c *Catalog) GetSchedule(ctx context.Context, scheduleID int64) (*models.Schedule, []models.ScheduleStop, error) {
	var sched models.Schedule
	var depDate, arrDate time.Time
	err := c.db.QueryRowContext(ctx, `
		SELECT id, train_id, start_train_station_id, end_train_station_id,
		       departure_time, departure_date, arrival_time, arrival_date
		FROM schedules WHERE id = ?`, scheduleID,
	).Scan(&sched.ID, &sched.TrainID, &sched.StartStationID, &sched.EndStationID,
		&sched.DepartureTime, &depDate, &sched.ArrivalTime, &arrDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: schedule %d", models.ErrNotFound, scheduleID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query schedule: %v", models.ErrStoreFailure, err)
	}
	sched.DepartureDate = models.Date{Year: depDate.Year(), Month: int(depDate.Month()), Day: depDate.Day()}
	sched.ArrivalDate = models.Date{Year: arrDate.Year(), Month: int(arrDate.Month()), Day: arrDate.Day()}

	rows, err := c.db.QueryContext(ctx, `
		SELECT schedule_id, station_id, stop_order, waiting_time
		FROM schedule_stops WHERE schedule_id = ? ORDER BY stop_order`, scheduleID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query schedule stops: %v", models.ErrStoreFailure, err)
	}
	defer rows.Close()

	var stops []models.ScheduleStop
	for rows.Next() {
		var st models.ScheduleStop
		if err := rows.Scan(&st.ScheduleID, &st.StationID, &st.StopOrder, &st.WaitingMinutes); err != nil {
			return nil, nil, fmt.Errorf("%w: scan schedule stop: %v", models.ErrStoreFailure, err)
		}
		stops = append(stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: iterate schedule stops: %v", models.ErrStoreFailure, err)
	}
	return &sched, stops, nil
}
