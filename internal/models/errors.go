package models

import "errors"

// Errores base del dominio. Los componentes los envuelven con %w para
// conservar la causa; los handlers los mapean a códigos HTTP.
var (
	// ErrInvalidArgument - input malformado o precondición violada
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound - la entidad referenciada no existe (user, station, train, schedule)
	ErrNotFound = errors.New("not found")

	// ErrConflict - clave o nombre duplicado al crear
	ErrConflict = errors.New("conflict")

	// ErrCapacityExceeded - pool de reservas de asientos agotado
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrStoreFailure - fallo del store subyacente (MySQL o Neo4j), siempre
	// envolviendo la causa original
	ErrStoreFailure = errors.New("store failure")
)
