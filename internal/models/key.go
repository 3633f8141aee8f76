package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Key identifica una estación o un tren. Acepta un entero o un string
// numérico y siempre normaliza a int64: la misma key normaliza siempre al
// mismo entero, y todo lo demás se rechaza.
type Key struct {
	raw string
	set bool
}

// KeyFromInt construye una Key desde un id entero.
func KeyFromInt(id int64) Key {
	return Key{raw: strconv.FormatInt(id, 10), set: true}
}

// KeyFromString construye una Key desde un string (debe ser numérico para
// poder normalizar).
func KeyFromString(s string) Key {
	return Key{raw: strings.TrimSpace(s), set: true}
}

// IsZero indica si la key nunca fue asignada (equivale a "sin key").
func (k Key) IsZero() bool {
	return !k.set
}

// Normalize convierte la key a su forma canónica int64.
// Falla con ErrInvalidArgument si la key está vacía o no es numérica.
func (k Key) Normalize() (int64, error) {
	if !k.set {
		return 0, fmt.Errorf("%w: key is null", ErrInvalidArgument)
	}
	if k.raw == "" {
		return 0, fmt.Errorf("%w: key is empty", ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(k.raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q is not an integer", ErrInvalidArgument, k.raw)
	}
	return id, nil
}

// Equal compara dos keys por su forma normalizada. Keys no normalizables
// nunca son iguales a nada.
func (k Key) Equal(other Key) bool {
	a, err := k.Normalize()
	if err != nil {
		return false
	}
	b, err := other.Normalize()
	if err != nil {
		return false
	}
	return a == b
}

func (k Key) String() string {
	if !k.set {
		return "<nil>"
	}
	return k.raw
}
