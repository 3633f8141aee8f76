package models

import (
	"fmt"
	"strings"
	"time"
)

// TrainStatus es el estado operacional de un tren.
type TrainStatus string

const (
	TrainOperational TrainStatus = "OPERATIONAL"
	TrainDelayed     TrainStatus = "DELAYED"
	TrainBroken      TrainStatus = "BROKEN"
)

// ParseTrainStatus valida un estado recibido como string.
func ParseTrainStatus(s string) (TrainStatus, error) {
	switch TrainStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case TrainOperational:
		return TrainOperational, nil
	case TrainDelayed:
		return TrainDelayed, nil
	case TrainBroken:
		return TrainBroken, nil
	}
	return "", fmt.Errorf("%w: invalid train status %q", ErrInvalidArgument, s)
}

// SortBy es el criterio de ordenamiento para la búsqueda de conexiones.
type SortBy string

const (
	SortByTravelTime     SortBy = "travel_time"
	SortByTrainChanges   SortBy = "train_changes"
	SortByWaitingTime    SortBy = "waiting_time"
	SortByEstimatedPrice SortBy = "estimated_price"
)

// ParseSortBy normaliza el criterio; un valor desconocido o vacío cae al
// default travel_time.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortByTrainChanges:
		return SortByTrainChanges
	case SortByWaitingTime:
		return SortByWaitingTime
	case SortByEstimatedPrice:
		return SortByEstimatedPrice
	default:
		return SortByTravelTime
	}
}

// Station es una estación de tren. Inmutable después de creada; vive en
// ambos stores (MySQL para datos, Neo4j para conectividad).
type Station struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Train es un tren con capacidad y estado mutables.
type Train struct {
	ID       int64       `json:"id"`
	Capacity int         `json:"capacity"`
	Status   TrainStatus `json:"status"`
}

// Schedule es la cabecera de un itinerario programado de un tren.
// Inmutable una vez creado.
type Schedule struct {
	ID             int64  `json:"id"`
	TrainID        int64  `json:"train_id"`
	StartStationID int64  `json:"start_station_id"`
	EndStationID   int64  `json:"end_station_id"`
	DepartureTime  string `json:"departure_time"` // HH:MM
	DepartureDate  Date   `json:"departure_date"`
	ArrivalTime    string `json:"arrival_time"`
	ArrivalDate    Date   `json:"arrival_date"`
}

// ScheduleStop es una parada ordenada dentro de un schedule.
type ScheduleStop struct {
	ScheduleID     int64 `json:"schedule_id"`
	StationID      int64 `json:"station_id"`
	StopOrder      int   `json:"stop_order"`
	WaitingMinutes int   `json:"waiting_minutes"`
}

// Ticket es una compra registrada. Nunca se actualiza.
type Ticket struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ScheduleID    int64     `json:"schedule_id"`
	PurchaseDate  time.Time `json:"purchase_date"`
	Price         float64   `json:"price"`
	ReservedSeats int       `json:"reserved_seats"`
}

// User es un usuario del sistema. El password se guarda como hash bcrypt.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin"`
}

// Leg es un tramo de un itinerario (una arista recorrida).
type Leg struct {
	From           int64      `json:"from"`
	To             int64      `json:"to"`
	TravelMinutes  int        `json:"travel_minutes"`
	WaitingMinutes int        `json:"waiting_minutes"`
	Departure      *time.Time `json:"departure,omitempty"`
	Arrival        *time.Time `json:"arrival,omitempty"`
}

// Itinerary es un camino puntuado por el motor de búsqueda, con sus
// cuatro métricas independientes.
type Itinerary struct {
	Stations       []int64 `json:"stations"`
	Legs           []Leg   `json:"legs"`
	TravelMinutes  int     `json:"travel_minutes"`
	TrainChanges   int     `json:"train_changes"`
	WaitingMinutes int     `json:"waiting_minutes"`
	EstimatedPrice float64 `json:"estimated_price"`
}

// PurchaseRecord es una fila del historial de compras de un usuario.
type PurchaseRecord struct {
	TicketID       int64     `json:"ticket_id"`
	StartStationID int64     `json:"start_station_id"`
	EndStationID   int64     `json:"end_station_id"`
	DepartureTime  string    `json:"departure_time"`
	DepartureDate  string    `json:"departure_date"`
	ArrivalTime    string    `json:"arrival_time"`
	ArrivalDate    string    `json:"arrival_date"`
	PurchaseDate   time.Time `json:"purchase_date"`
	TotalPrice     float64   `json:"total_price"`
	ReservedSeats  int       `json:"reserved_seats"`
}

// ErrorResponse es la respuesta de error estándar del API.
type ErrorResponse struct {
	Error string `json:"error"`
}
