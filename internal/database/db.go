package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jgoulah/powerdash/pkg/models"
	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		voltage REAL NOT NULL,
		current REAL NOT NULL,
		power REAL NOT NULL,
		energy REAL NOT NULL,
		frequency REAL NOT NULL,
		power_factor REAL NOT NULL,
		batch_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_readings_date ON readings(date);

	CREATE TABLE IF NOT EXISTS published_costs (
		date TEXT PRIMARY KEY,
		daily_cost REAL NOT NULL,
		published_at TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SyncResult summarizes one InsertReadings call
type SyncResult struct {
	BatchID  string
	Inserted int
	Skipped  int
}

// InsertReadings stores readings in arrival order under a new batch ID, ignoring duplicates.
// Timestamps are keyed in UTC so the same instant is never stored twice.
func (db *DB) InsertReadings(ctx context.Context, readings []models.Reading) (*SyncResult, error) {
	result := &SyncResult{BatchID: uuid.NewString()}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO readings (date, timestamp, voltage, current, power, energy, frequency, power_factor, batch_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for _, r := range readings {
		res, err := stmt.ExecContext(ctx,
			r.DateKey(), r.Timestamp.UTC().Format(timestampLayout),
			r.Voltage, r.Current, r.Power, r.Energy, r.Frequency, r.PowerFactor,
			result.BatchID, createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting reading %s: %w", r.Timestamp.Format(timestampLayout), err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("checking insert result: %w", err)
		}
		if n == 0 {
			result.Skipped++
		} else {
			result.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing readings: %w", err)
	}

	return result, nil
}

// ListReadings retrieves every cached reading in arrival order, with UTC timestamps
func (db *DB) ListReadings(ctx context.Context) ([]models.Reading, error) {
	query := `
	SELECT date, timestamp, voltage, current, power, energy, frequency, power_factor
	FROM readings
	ORDER BY id ASC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var results []models.Reading
	for rows.Next() {
		var r models.Reading
		var dateStr, tsStr string

		if err := rows.Scan(&dateStr, &tsStr, &r.Voltage, &r.Current, &r.Power, &r.Energy, &r.Frequency, &r.PowerFactor); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Date, err = models.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}

		r.Timestamp, err = time.Parse(timestampLayout, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// CountReadings returns the number of cached readings
func (db *DB) CountReadings(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return n, nil
}

// PublishedCost returns the last published cost for a date, if any
func (db *DB) PublishedCost(ctx context.Context, date string) (float64, bool, error) {
	var cost float64
	err := db.conn.QueryRowContext(ctx, `SELECT daily_cost FROM published_costs WHERE date = ?`, date).Scan(&cost)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying published cost: %w", err)
	}
	return cost, true, nil
}

// MarkPublished records the cost that was published for a date
func (db *DB) MarkPublished(ctx context.Context, date string, cost float64) error {
	query := `
	INSERT INTO published_costs (date, daily_cost, published_at) VALUES (?, ?, ?)
	ON CONFLICT(date) DO UPDATE SET daily_cost = excluded.daily_cost, published_at = excluded.published_at
	`
	_, err := db.conn.ExecContext(ctx, query, date, cost, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("marking %s as published: %w", date, err)
	}
	return nil
}
