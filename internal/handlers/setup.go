package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/trencl/internal/booking"
	"github.com/yourorg/trencl/internal/dualwrite"
	"github.com/yourorg/trencl/internal/models"
	"github.com/yourorg/trencl/internal/netimport"
	"github.com/yourorg/trencl/internal/registry"
	"github.com/yourorg/trencl/internal/schedule"
	"github.com/yourorg/trencl/internal/search"
	"github.com/yourorg/trencl/internal/topology"
)

// package-level dependencies
var (
	setupOnce sync.Once    // Garantiza inicialización única
	setupMu   sync.RWMutex // Protege acceso a variables globales

	dbConn       *sql.DB
	topoStore    *topology.Store
	searchEngine *search.Engine
	catalog      *schedule.Catalog
	ledger       *booking.Ledger
	journal      *dualwrite.Journal
	users        *registry.Users
	trains       *registry.Trains
	stations     *registry.Stations
	netLoader    *netimport.Loader
	importMu     sync.Mutex
)

// Setup wires shared dependencies for handlers. Call this during app bootstrap.
func Setup(db *sql.DB, topo *topology.Store) {
	setupOnce.Do(func() {
		setupMu.Lock()
		defer setupMu.Unlock()

		dbConn = db
		topoStore = topo
		searchEngine = search.NewEngine(topo)
		catalog = schedule.NewCatalog(db, topo)
		ledger = booking.NewLedger(db)
		journal = dualwrite.NewJournal(db)
		users = registry.NewUsers(db)
		trains = registry.NewTrains(db)
		stations = registry.NewStations(db, topo, journal)

		feedURL := strings.TrimSpace(os.Getenv("NETWORK_FEED_URL"))
		fallbackURL := strings.TrimSpace(os.Getenv("NETWORK_FALLBACK_URL"))
		netLoader = netimport.NewLoader(feedURL, fallbackURL, nil)
	})
}

// getDBConn retorna la conexión de base de datos de forma segura
func getDBConn() *sql.DB {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return dbConn
}

// fail mapea la taxonomía de errores del dominio a códigos HTTP:
//
//	InvalidArgument  → 422
//	NotFound         → 404
//	Conflict         → 409
//	CapacityExceeded → 409
//	StoreFailure     → 500
func fail(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrCapacityExceeded):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(models.ErrorResponse{Error: err.Error()})
}
