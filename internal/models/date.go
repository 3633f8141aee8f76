package models

import (
	"fmt"
	"time"
)

// Date es una fecha calendario sin zona horaria (año, mes, día).
// La comparación es por componentes, nunca lexical.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ParseDate interpreta una fecha en formato YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrInvalidArgument, s)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// IsZero indica si la fecha no fue especificada.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Validate verifica que la fecha sea un día calendario real.
func (d Date) Validate() error {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 || d.Year < 1 {
		return fmt.Errorf("%w: invalid date %04d-%02d-%02d", ErrInvalidArgument, d.Year, d.Month, d.Day)
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Year() != d.Year || int(t.Month()) != d.Month || t.Day() != d.Day {
		return fmt.Errorf("%w: invalid date %04d-%02d-%02d", ErrInvalidArgument, d.Year, d.Month, d.Day)
	}
	return nil
}

// After compara componente a componente.
func (d Date) After(other Date) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}
	if d.Month != other.Month {
		return d.Month > other.Month
	}
	return d.Day > other.Day
}

// Time retorna la medianoche UTC del día.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// String formatea como YYYY-MM-DD (formato DATE de MySQL).
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
