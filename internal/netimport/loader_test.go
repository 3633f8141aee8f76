package netimport

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func zipWith(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestObtainFeedFallback(t *testing.T) {
	payload := zipWith(t, map[string]string{"stations.csv": "station_id,name\n"})

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer fallback.Close()

	l := NewLoader(primary.URL, fallback.URL, nil)
	data, source, err := l.obtainFeed(context.Background())
	if err != nil {
		t.Fatalf("obtainFeed: %v", err)
	}
	if source != fallback.URL {
		t.Errorf("source = %s, esperaba el fallback %s", source, fallback.URL)
	}
	if !bytes.Equal(data, payload) {
		t.Error("el payload descargado no coincide")
	}
}

func TestObtainFeedSinFallback(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	l := NewLoader(primary.URL, "", nil)
	if _, _, err := l.obtainFeed(context.Background()); err == nil {
		t.Fatal("esperaba error cuando el primario falla y no hay fallback")
	}
}

func TestFindFileInsensibleAMayusculas(t *testing.T) {
	payload := zipWith(t, map[string]string{
		"Stations.CSV":    "station_id,name\n",
		"connections.csv": "from_station_id,to_station_id,travel_time_minutes\n",
	})
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if _, err := findFile(zr, "stations.csv"); err != nil {
		t.Errorf("findFile stations.csv: %v", err)
	}
	if _, err := findFile(zr, "schedules.csv"); err == nil {
		t.Error("esperaba error para archivo inexistente")
	}
}

func TestHeaderIndexNormaliza(t *testing.T) {
	idx := headerIndex([]string{" Station_ID", "NAME ", "location"})
	if idx["station_id"] != 0 || idx["name"] != 1 || idx["location"] != 2 {
		t.Errorf("headerIndex no normalizó: %v", idx)
	}
	record := []string{"12", "Estación Central"}
	if got := safeField(record, idx, "station_id"); got != "12" {
		t.Errorf("safeField station_id = %q", got)
	}
	if got := safeField(record, idx, "location"); got != "" {
		t.Errorf("safeField fuera de rango = %q, esperaba vacío", got)
	}
}
