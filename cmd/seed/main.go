// Command seed loads a zipcode CSV (zip,lat,lng) into the Postgres
// reference table used by the map endpoints.
package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/errcHuang/weebly-ecommerce-analytics/database"
	geodomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/domain"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment defaults")
	}

	path := getEnv("ZIPCODE_CSV", "data/zipcodes.csv")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "analytics"),
		getEnv("DB_PASSWORD", "analytics"),
		getEnv("DB_NAME", "analyticsdb"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := database.Open(connStr)
	if err != nil {
		log.Fatal("connecting to database:", err)
	}
	defer db.Close()

	count, err := seedZipcodes(db, path)
	if err != nil {
		log.Fatal("seeding zipcodes:", err)
	}
	fmt.Printf("loaded %d zipcodes from %s\n", count, path)
}

func seedZipcodes(db *sql.DB, path string) (int, error) {
	rows, err := readZipcodeCSV(path)
	if err != nil {
		return 0, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS zipcodes (
		zip TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL
	)`); err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`TRUNCATE zipcodes`); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO zipcodes (zip, lat, lng) VALUES ($1, $2, $3)
		ON CONFLICT (zip) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	bar := progressbar.Default(int64(len(rows)), "seeding zipcodes")
	for _, row := range rows {
		if _, err := stmt.Exec(row.zip, row.lat, row.lng); err != nil {
			return 0, fmt.Errorf("inserting zip %s: %w", row.zip, err)
		}
		bar.Add(1)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

type zipcodeRow struct {
	zip string
	lat float64
	lng float64
}

// readZipcodeCSV parses the source file, normalizing zips the same way
// the lookup path does so seeded keys always match queries.
func readZipcodeCSV(path string) ([]zipcodeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []zipcodeRow
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) < 3 {
			continue
		}
		// Header row.
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "zip") {
			continue
		}

		zip := geodomain.NormalizeZip(record[0])
		if zip == "" {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad latitude %q", line, record[1])
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad longitude %q", line, record[2])
		}
		rows = append(rows, zipcodeRow{zip: zip, lat: lat, lng: lng})
	}
	return rows, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
