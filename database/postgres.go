package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

type DBClient struct {
	DB *sql.DB
}

// NewPostgresDB connects to the shared record store. A missing DATABASE_URL
// is reported as an error, not a fallback: callers run with a nil store and
// degrade (sample stats, disabled telemetry) instead of pointing at a guess.
func NewPostgresDB() (*DBClient, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database (ping failed): %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database!")
	return &DBClient{DB: db}, nil
}

func (c *DBClient) Close() {
	if c.DB != nil {
		err := c.DB.Close()
		if err != nil {
			log.Printf("Error closing database connection: %v", err)
		} else {
			log.Println("PostgreSQL database connection closed.")
		}
	}
}
