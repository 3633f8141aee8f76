package netimport

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/trencl/internal/registry"
)

// Loader descarga e importa una malla de estaciones y conexiones desde un
// archivo zip (stations.csv + connections.csv). Pensado para poblar un
// ambiente nuevo de una sola vez; las altas individuales siguen pasando por
// el registro con su saga.
type Loader struct {
	feedURL     string
	fallbackURL string
	httpClient  *http.Client
}

// Summary describes the result of a network import.
type Summary struct {
	StationsImported    int       `json:"stations_imported"`
	ConnectionsImported int       `json:"connections_imported"`
	DownloadedAt        time.Time `json:"downloaded_at"`
	SourceURL           string    `json:"source_url"`
	BatchID             string    `json:"batch_id"`
}

// NewLoader builds a loader for the provided feed URL. Optionally accepts a
// fallback URL that will be attempted when the primary feed returns a
// non-success status (e.g. 404).
func NewLoader(feedURL, fallbackURL string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Loader{
		feedURL:     strings.TrimSpace(feedURL),
		fallbackURL: strings.TrimSpace(fallbackURL),
		httpClient:  client,
	}
}

// Sync descarga el feed e importa estaciones y conexiones. Las filas que ya
// existen en MySQL se saltan; las nuevas se replican al grafo. Todas las
// escrituras relacionales van en una transacción.
func (l *Loader) Sync(ctx context.Context, db *sql.DB, topo registry.Topology) (*Summary, error) {
	if l.feedURL == "" {
		return nil, errors.New("net import: feed url is empty")
	}

	data, sourceURL, err := l.obtainFeed(ctx)
	if err != nil {
		return nil, err
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("net import: open zip: %w", err)
	}

	stationsFile, err := findFile(zr, "stations.csv")
	if err != nil {
		return nil, err
	}
	connectionsFile, err := findFile(zr, "connections.csv")
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("net import: begin tx: %w", err)
	}
	defer tx.Rollback()

	fmt.Println("📍 Importing stations...")
	stations, err := importStations(ctx, tx, stationsFile)
	if err != nil {
		return nil, err
	}

	fmt.Println("🔗 Importing connections...")
	connections, err := importConnections(ctx, tx, connectionsFile, batchID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("net import: commit: %w", err)
	}

	// Replay al grafo después del commit relacional. Los fallos acá no
	// revierten MySQL: quedan logueados para reimportar.
	graphErrors := 0
	for _, st := range stations {
		if err := topo.AddStation(ctx, st.id, st.name, st.location); err != nil {
			graphErrors++
			if graphErrors <= 20 {
				fmt.Printf("net import: error replaying station %d to graph: %v\n", st.id, err)
			}
		}
	}
	for _, c := range connections {
		if err := topo.CreateConnection(ctx, c.from, c.to, c.travelMinutes, batchID); err != nil {
			graphErrors++
			if graphErrors <= 20 {
				fmt.Printf("net import: error replaying connection %d→%d to graph: %v\n", c.from, c.to, err)
			}
		}
	}

	fmt.Printf("✅ Network import complete:\n")
	fmt.Printf("   - Stations: %d\n", len(stations))
	fmt.Printf("   - Connections: %d\n", len(connections))
	if graphErrors > 0 {
		fmt.Printf("   - Graph replay errors: %d\n", graphErrors)
	}

	summary := &Summary{
		StationsImported:    len(stations),
		ConnectionsImported: len(connections),
		DownloadedAt:        time.Now().UTC(),
		SourceURL:           sourceURL,
		BatchID:             batchID,
	}
	return summary, nil
}

type importedStation struct {
	id       int64
	name     string
	location string
}

type importedConnection struct {
	from          int64
	to            int64
	travelMinutes int
}

func importStations(ctx context.Context, tx *sql.Tx, file *zip.File) ([]importedStation, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("net import: open stations.csv: %w", err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("net import: read stations header: %w", err)
	}
	idx := headerIndex(header)
	for _, field := range []string{"station_id", "name"} {
		if _, ok := idx[field]; !ok {
			return nil, fmt.Errorf("net import: missing column %s in stations.csv", field)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO train_stations (id, name, location) VALUES (?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("net import: prepare insert station: %w", err)
	}
	defer stmt.Close()

	var imported []importedStation
	skipped := 0
	errorCount := 0
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errorCount++
			if errorCount <= 20 {
				fmt.Printf("net import: error reading line %d: %v\n", lineNum, err)
			}
			continue
		}

		idStr := safeField(record, idx, "station_id")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			skipped++
			if skipped <= 20 {
				fmt.Printf("net import: line %d - invalid station id '%s'\n", lineNum, idStr)
			}
			continue
		}
		name := safeField(record, idx, "name")
		if name == "" {
			name = fmt.Sprintf("Unknown%d", id)
		}
		location := safeField(record, idx, "location")
		if location == "" {
			location = "Unknown"
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM train_stations WHERE id = ? OR name = ?)", id, name,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("net import: check station: %w", err)
		}
		if exists {
			skipped++
			continue
		}

		if _, err := stmt.ExecContext(ctx, id, name, location); err != nil {
			errorCount++
			if errorCount <= 30 {
				fmt.Printf("net import: line %d - error inserting station %d: %v\n", lineNum, id, err)
			}
			continue
		}
		imported = append(imported, importedStation{id: id, name: name, location: location})
	}

	fmt.Printf("net import: stations complete - success: %d, skipped: %d, errors: %d\n",
		len(imported), skipped, errorCount)
	return imported, nil
}

func importConnections(ctx context.Context, tx *sql.Tx, file *zip.File, batchID string) ([]importedConnection, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("net import: open connections.csv: %w", err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("net import: read connections header: %w", err)
	}
	idx := headerIndex(header)
	for _, field := range []string{"from_station_id", "to_station_id", "travel_time_minutes"} {
		if _, ok := idx[field]; !ok {
			return nil, fmt.Errorf("net import: missing column %s in connections.csv", field)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO connections
		(start_station_id, end_station_id, travel_time_minutes, intent_id)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("net import: prepare insert connection: %w", err)
	}
	defer stmt.Close()

	var imported []importedConnection
	skipped := 0
	errorCount := 0
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errorCount++
			if errorCount <= 20 {
				fmt.Printf("net import: error reading line %d: %v\n", lineNum, err)
			}
			continue
		}

		from, err1 := strconv.ParseInt(safeField(record, idx, "from_station_id"), 10, 64)
		to, err2 := strconv.ParseInt(safeField(record, idx, "to_station_id"), 10, 64)
		minutes, err3 := strconv.Atoi(safeField(record, idx, "travel_time_minutes"))
		if err1 != nil || err2 != nil || err3 != nil || minutes <= 0 {
			skipped++
			if skipped <= 20 {
				fmt.Printf("net import: line %d - invalid connection record %v\n", lineNum, record)
			}
			continue
		}

		if _, err := stmt.ExecContext(ctx, from, to, minutes, batchID); err != nil {
			errorCount++
			if errorCount <= 30 {
				fmt.Printf("net import: line %d - error inserting connection %d→%d: %v\n", lineNum, from, to, err)
			}
			continue
		}
		imported = append(imported, importedConnection{from: from, to: to, travelMinutes: minutes})
	}

	fmt.Printf("net import: connections complete - success: %d, skipped: %d, errors: %d\n",
		len(imported), skipped, errorCount)
	return imported, nil
}

func (l *Loader) obtainFeed(ctx context.Context) ([]byte, string, error) {
	primaryData, err := l.download(ctx, l.feedURL)
	if err == nil {
		return primaryData, l.feedURL, nil
	}

	fallback := l.fallbackURL
	if fallback != "" && !strings.EqualFold(fallback, l.feedURL) {
		fallbackData, fbErr := l.download(ctx, fallback)
		if fbErr == nil {
			return fallbackData, fallback, nil
		}
		return nil, "", fmt.Errorf("%w; fallback %s failed: %v", err, fallback, fbErr)
	}

	return nil, "", err
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("net import: feed url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("net import: build request for %s: %w", url, err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("net import: download feed %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("net import: download feed %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("net import: read feed %s: %w", url, err)
	}
	return data, nil
}

func findFile(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("net import: file %s not found in archive", name)
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, field := range header {
		idx[strings.TrimSpace(strings.ToLower(field))] = i
	}
	return idx
}

func safeField(record []string, idx map[string]int, key string) string {
	if pos, ok := idx[key]; ok && pos < len(record) {
		return strings.TrimSpace(record[pos])
	}
	return ""
}
