package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	appdb "github.com/yourorg/trencl/internal/db"
	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/netimport"
	"github.com/yourorg/trencl/internal/search"
	"github.com/yourorg/trencl/internal/topology"
)

func main() {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("==== TrenCL CLI ====")
		fmt.Println("1) Health check API")
		fmt.Println("2) Seed database (sample network)")
		fmt.Println("3) Import network feed")
		fmt.Println("4) Demo search (in-memory graph)")
		fmt.Println("5) Exit")
		fmt.Print("Select option: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		switch choice {
		case "1":
			doHealthCheck()
		case "2":
			doSeed()
		case "3":
			doImport()
		case "4":
			doDemoSearch()
		case "5":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func doHealthCheck() {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	url := strings.TrimRight(base, "/") + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Health: ERROR:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("Health status:", resp.Status)
}

func doSeed() {
	db, err := appdb.Connect()
	if err != nil {
		log.Println("DB connect error:", err)
		return
	}
	defer db.Close()
	if err := appdb.EnsureSchema(db); err != nil {
		log.Println("Ensure schema error:", err)
		return
	}

	// Usuario de muestra para probar compras.
	email := "demo@example.com"
	var exists int
	_ = db.QueryRow("SELECT 1 FROM users WHERE email = ?", email).Scan(&exists)
	if exists == 1 {
		fmt.Println("Seed: user 'demo@example.com' already exists")
		return
	}
	if _, err := db.Exec(
		"INSERT INTO users (email, password_hash, is_admin) VALUES (?, NULL, FALSE)", email,
	); err != nil {
		log.Println("Seed: insert user error:", err)
		return
	}
	fmt.Println("Seed: created user 'demo@example.com'")
}

func doImport() {
	feedURL := strings.TrimSpace(os.Getenv("NETWORK_FEED_URL"))
	if feedURL == "" {
		fmt.Println("NETWORK_FEED_URL no definido.")
		return
	}
	fallbackURL := strings.TrimSpace(os.Getenv("NETWORK_FALLBACK_URL"))
	loader := netimport.NewLoader(feedURL, fallbackURL, nil)

	db, err := appdb.Connect()
	if err != nil {
		log.Println("Import: db connect error:", err)
		return
	}
	defer db.Close()
	if err := appdb.EnsureSchema(db); err != nil {
		log.Println("Import: ensure schema error:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	topo, err := topology.Connect(ctx)
	if err != nil {
		log.Println("Import: neo4j connect error:", err)
		return
	}
	defer topo.Close(context.Background())

	summary, err := loader.Sync(ctx, db, topo)
	if err != nil {
		log.Println("Import: error:", err)
		return
	}
	fmt.Printf("Import OK: %d estaciones, %d conexiones [%s]\n",
		summary.StationsImported, summary.ConnectionsImported,
		summary.DownloadedAt.Format(time.RFC3339))
}

// doDemoSearch arma un grafo chico en memoria y corre el motor de búsqueda
// sin tocar ningún store. Útil para mostrar los criterios de ordenamiento.
func doDemoSearch() {
	g := topology.NewMemoryGraph()
	for id := int64(1); id <= 4; id++ {
		_ = g.AddStation(id)
	}
	_ = g.Connect(topology.Link{From: 1, To: 2, TravelMinutes: 30})
	_ = g.Connect(topology.Link{From: 2, To: 3, TravelMinutes: 30})
	_ = g.Connect(topology.Link{From: 1, To: 3, TravelMinutes: 90})
	_ = g.Connect(topology.Link{From: 3, To: 4, TravelMinutes: 15})

	engine := search.NewEngine(g)
	ctx := context.Background()

	for _, criterion := range []models.SortBy{models.SortByTravelTime, models.SortByTrainChanges} {
		results, err := engine.Search(ctx, models.KeyFromInt(1), models.KeyFromInt(4), search.Options{
			SortBy:    criterion,
			Ascending: true,
		})
		if err != nil {
			log.Println("Demo search error:", err)
			return
		}
		fmt.Printf("— orden por %s —\n", criterion)
		for i, it := range results {
			fmt.Printf("  %d. estaciones=%v viaje=%dmin cambios=%d precio=$%.2f\n",
				i+1, it.Stations, it.TravelMinutes, it.TrainChanges, it.EstimatedPrice)
		}
	}
}
