package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/unklstewy/spotty/pkg/spotting"
)

// SpottedRepository stores bookmarked flights, one row per identifier.
// It implements spotting.SpottedStore. The repository owns its connection and
// reconnects before an operation when the database stopped answering.
type SpottedRepository struct {
	mu     sync.Mutex
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

var _ spotting.SpottedStore = (*SpottedRepository)(nil)

// NewSpottedRepository creates a new spotted-flights repository.
func NewSpottedRepository(db *DB, logger *slog.Logger) *SpottedRepository {
	return &SpottedRepository{
		db:     db,
		logger: orDefault(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// conn returns a live connection, replacing the current one if it is gone.
func (r *SpottedRepository) conn(ctx context.Context) (*DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := EnsureConnection(ctx, r.db, r.db.config, r.logger)
	if err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	if next != r.db {
		r.logger.Info("database reconnected", "driver", next.driver)
		r.db = next
	}
	return next, nil
}

// DB returns the current connection.
func (r *SpottedRepository) DB() *DB {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db
}

// Close closes the current connection.
func (r *SpottedRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

// Health reports whether the database answers, with pool and row statistics.
func (r *SpottedRepository) Health(ctx context.Context) (map[string]interface{}, bool) {
	report := map[string]interface{}{"driver": r.DB().driver}

	db, err := r.conn(ctx)
	if err != nil {
		report["status"] = "unavailable"
		report["error"] = err.Error()
		return report, false
	}
	if !HealthCheck(ctx, db, r.logger) {
		report["status"] = "unavailable"
		return report, false
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		report["status"] = "unavailable"
		report["error"] = err.Error()
		return report, false
	}
	for k, v := range stats {
		report[k] = v
	}
	report["status"] = "ok"
	return report, true
}

// Add inserts the flight or replaces an existing row for its identifier,
// stamping the spotted time.
func (r *SpottedRepository) Add(ctx context.Context, flight spotting.ResolvedFlight) error {
	flight.Identifier = spotting.CanonicalIdentifier(flight.Identifier)
	payload, err := json.Marshal(flight)
	if err != nil {
		return fmt.Errorf("failed to encode flight: %w", err)
	}

	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, db.Rebind(upsertQuery(db.driver)),
		flight.Identifier, flight.Callsign, flight.Registration, flight.ModelType,
		flight.OperatorCode, string(payload), r.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert spotted flight: %w", err)
	}
	return nil
}

func upsertQuery(driver string) string {
	const insert = `INSERT INTO spotted_flights (
			identifier, callsign, registration, model_type, operator, payload, spotted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	if driver == DriverMySQL {
		return insert + `
		ON DUPLICATE KEY UPDATE
			callsign = VALUES(callsign),
			registration = VALUES(registration),
			model_type = VALUES(model_type),
			operator = VALUES(operator),
			payload = VALUES(payload),
			spotted_at = VALUES(spotted_at)`
	}
	return insert + `
		ON CONFLICT (identifier) DO UPDATE SET
			callsign = EXCLUDED.callsign,
			registration = EXCLUDED.registration,
			model_type = EXCLUDED.model_type,
			operator = EXCLUDED.operator,
			payload = EXCLUDED.payload,
			spotted_at = EXCLUDED.spotted_at`
}

// Remove deletes the row for identifier. Removing a missing row is not an error.
func (r *SpottedRepository) Remove(ctx context.Context, identifier string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		db.Rebind(`DELETE FROM spotted_flights WHERE identifier = ?`),
		spotting.CanonicalIdentifier(identifier),
	)
	if err != nil {
		return fmt.Errorf("failed to delete spotted flight: %w", err)
	}
	return nil
}

// List returns every spotted flight, most recent first.
func (r *SpottedRepository) List(ctx context.Context) ([]spotting.SpottedFlight, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT payload, spotted_at FROM spotted_flights ORDER BY spotted_at DESC, identifier ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query spotted flights: %w", err)
	}
	defer rows.Close()

	flights := []spotting.SpottedFlight{}
	for rows.Next() {
		var (
			payload   string
			spottedAt time.Time
		)
		if err := rows.Scan(&payload, &spottedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spotted flight: %w", err)
		}

		var f spotting.ResolvedFlight
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			return nil, fmt.Errorf("failed to decode spotted flight: %w", err)
		}
		flights = append(flights, spotting.SpottedFlight{ResolvedFlight: f, SpottedAt: spottedAt.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spotted flights: %w", err)
	}
	return flights, nil
}

// Clear deletes every spotted flight.
func (r *SpottedRepository) Clear(ctx context.Context) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM spotted_flights`); err != nil {
		return fmt.Errorf("failed to clear spotted flights: %w", err)
	}
	return nil
}
