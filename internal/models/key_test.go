package models

import (
	"errors"
	"testing"
)

func TestKeyNormalizeFromInt(t *testing.T) {
	k := KeyFromInt(42)
	id, err := k.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected 42, got %d", id)
	}
}

func TestKeyNormalizeFromNumericString(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"7", 7},
		{" 7 ", 7},
		{"0", 0},
		{"-3", -3},
		{"1000000", 1000000},
	}
	for _, tc := range cases {
		id, err := KeyFromString(tc.in).Normalize()
		if err != nil {
			t.Errorf("Normalize(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if id != tc.want {
			t.Errorf("Normalize(%q) = %d, expected %d", tc.in, id, tc.want)
		}
	}
}

func TestKeyNormalizeDeterministic(t *testing.T) {
	// La misma key debe normalizar siempre al mismo entero, sea cual sea
	// la representación de entrada.
	a, _ := KeyFromInt(15).Normalize()
	b, _ := KeyFromString("15").Normalize()
	if a != b {
		t.Errorf("int and string forms disagree: %d vs %d", a, b)
	}
}

func TestKeyNormalizeRejectsBadInput(t *testing.T) {
	bad := []string{"", "abc", "12.5", "12a", "one"}
	for _, in := range bad {
		if _, err := KeyFromString(in).Normalize(); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Normalize(%q): expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestKeyNormalizeRejectsNull(t *testing.T) {
	var k Key
	if !k.IsZero() {
		t.Fatal("zero Key should report IsZero")
	}
	if _, err := k.Normalize(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for null key, got %v", err)
	}
}

func TestKeyEqual(t *testing.T) {
	if !KeyFromInt(3).Equal(KeyFromString("3")) {
		t.Error("expected 3 == \"3\"")
	}
	if KeyFromInt(3).Equal(KeyFromInt(4)) {
		t.Error("expected 3 != 4")
	}
	var null Key
	if null.Equal(null) {
		t.Error("null keys must never compare equal")
	}
}

func TestDateAfterComponentWise(t *testing.T) {
	cases := []struct {
		a, b Date
		want bool
	}{
		{Date{2024, 6, 1}, Date{2024, 5, 31}, true},
		{Date{2024, 5, 31}, Date{2024, 6, 1}, false},
		{Date{2025, 1, 1}, Date{2024, 12, 31}, true},
		{Date{2024, 6, 1}, Date{2024, 6, 1}, false},
		// Comparación lexical fallaría aquí: "2024-9-x" > "2024-10-x"
		{Date{2024, 9, 1}, Date{2024, 10, 1}, false},
	}
	for _, tc := range cases {
		if got := tc.a.After(tc.b); got != tc.want {
			t.Errorf("%v After %v = %v, expected %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDateValidate(t *testing.T) {
	if err := (Date{2024, 2, 30}).Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Error("Feb 30 should be rejected")
	}
	if err := (Date{2024, 13, 1}).Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Error("month 13 should be rejected")
	}
	if err := (Date{2024, 2, 29}).Validate(); err != nil {
		t.Errorf("2024 is a leap year, Feb 29 is valid: %v", err)
	}
}

func TestParseTrainStatus(t *testing.T) {
	if s, err := ParseTrainStatus("operational"); err != nil || s != TrainOperational {
		t.Errorf("expected OPERATIONAL, got %v (%v)", s, err)
	}
	if _, err := ParseTrainStatus("EXPLODED"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseSortByDefaults(t *testing.T) {
	if got := ParseSortBy("nonsense"); got != SortByTravelTime {
		t.Errorf("unknown criterion should default to travel_time, got %v", got)
	}
	if got := ParseSortBy("estimated_price"); got != SortByEstimatedPrice {
		t.Errorf("expected estimated_price, got %v", got)
	}
}
