package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// Connect returns a MariaDB connection using env vars.
func Connect() (*sql.DB, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	if name == "" {
		name = "trencl"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8", user, pass, host, port, name)
	return sql.Open("mysql", dsn)
}

// EnsureSchema creates required tables if not exist.
func EnsureSchema(db *sql.DB) error {
	if skip := strings.TrimSpace(os.Getenv("DB_SKIP_SCHEMA")); strings.EqualFold(skip, "true") || skip == "1" {
		log.Printf("EnsureSchema: skipped (DB_SKIP_SCHEMA=%q)", skip)
		return nil
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trains (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			status ENUM('OPERATIONAL', 'DELAYED', 'BROKEN') NOT NULL DEFAULT 'OPERATIONAL',
			capacity INT NOT NULL,
			CHECK (capacity > 0)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS train_stations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			location VARCHAR(255) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	// Espejo desnormalizado de la conectividad; la fuente de verdad para
	// routing es Neo4j.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS connections (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			start_station_id BIGINT NOT NULL,
			end_station_id BIGINT NOT NULL,
			travel_time_minutes INT NOT NULL,
			intent_id CHAR(36) NULL,
			FOREIGN KEY (start_station_id) REFERENCES train_stations(id),
			FOREIGN KEY (end_station_id) REFERENCES train_stations(id),
			CHECK (travel_time_minutes > 0)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schedules (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			train_id BIGINT NOT NULL,
			start_train_station_id BIGINT NOT NULL,
			end_train_station_id BIGINT NOT NULL,
			departure_time TIME NOT NULL,
			departure_date DATE NOT NULL,
			arrival_time TIME NOT NULL,
			arrival_date DATE NOT NULL,
			FOREIGN KEY (train_id) REFERENCES trains(id),
			FOREIGN KEY (start_train_station_id) REFERENCES train_stations(id),
			FOREIGN KEY (end_train_station_id) REFERENCES train_stations(id),
			CHECK (departure_date <= arrival_date)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schedule_stops (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			schedule_id BIGINT NOT NULL,
			station_id BIGINT NOT NULL,
			stop_order INT NOT NULL,
			waiting_time INT NOT NULL,
			FOREIGN KEY (schedule_id) REFERENCES schedules(id),
			FOREIGN KEY (station_id) REFERENCES train_stations(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			schedule_id BIGINT NOT NULL,
			purchase_date DATETIME NOT NULL,
			price DECIMAL(10, 2) NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (schedule_id) REFERENCES schedules(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS seat_reservations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			ticket_id BIGINT NOT NULL,
			number_of_seats INT NOT NULL,
			FOREIGN KEY (ticket_id) REFERENCES tickets(id),
			CHECK (number_of_seats > 0)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	// Journal de intents para escrituras dual-store (saga con compensación).
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS write_intents (
			id CHAR(36) PRIMARY KEY,
			operation VARCHAR(64) NOT NULL,
			payload JSON NULL,
			status ENUM('PENDING', 'DONE', 'COMPENSATED', 'FAILED') NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			resolved_at TIMESTAMP NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE INDEX idx_tickets_user_purchase ON tickets(user_id, purchase_date);
	`); err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") {
			// index already exists, nothing to do
		} else if strings.Contains(errMsg, "permission denied") {
			log.Printf("EnsureSchema: unable to create tickets index (permission denied): %v", err)
		} else {
			return err
		}
	}

	return nil
}
