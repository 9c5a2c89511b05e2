// Package postgres reads the draw history from a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lotto-mcp/internal/draw"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const fetchQuery = `SELECT round, n1, n2, n3, n4, n5, n6, bonus FROM draws WHERE round > $1 ORDER BY round`

const latestQuery = `SELECT COALESCE(MAX(round), 0) FROM draws`

const upsertQuery = `INSERT INTO draws (round, n1, n2, n3, n4, n5, n6, bonus)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (round) DO UPDATE SET
	n1 = EXCLUDED.n1, n2 = EXCLUDED.n2, n3 = EXCLUDED.n3,
	n4 = EXCLUDED.n4, n5 = EXCLUDED.n5, n6 = EXCLUDED.n6,
	bonus = EXCLUDED.bonus`

// Source is a history.Source backed by the draws table.
type Source struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Source {
	return &Source{db: db}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", describe(err))
	}
	return db, nil
}

// LatestRound returns the highest stored round, 0 for an empty table.
func (s *Source) LatestRound(ctx context.Context) (int, error) {
	var round int
	if err := s.db.QueryRowContext(ctx, latestQuery).Scan(&round); err != nil {
		return 0, fmt.Errorf("query latest round: %w", describe(err))
	}
	return round, nil
}

// Fetch returns every stored draw with round > after, ascending.
func (s *Source) Fetch(ctx context.Context, after int) ([]draw.Record, error) {
	rows, err := s.db.QueryContext(ctx, fetchQuery, after)
	if err != nil {
		return nil, fmt.Errorf("query draws: %w", describe(err))
	}
	defer rows.Close()

	var out []draw.Record
	for rows.Next() {
		var r draw.Record
		r.Numbers = make([]int, draw.PickCount)
		if err := rows.Scan(&r.Round, &r.Numbers[0], &r.Numbers[1], &r.Numbers[2],
			&r.Numbers[3], &r.Numbers[4], &r.Numbers[5], &r.Bonus); err != nil {
			return nil, fmt.Errorf("scan draw row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draws: %w", describe(err))
	}

	log.Debug().Int("after", after).Int("rows", len(out)).Msg("Fetched draws from postgres")
	return out, nil
}

// Upsert writes records in one transaction, replacing existing rounds.
func (s *Source) Upsert(ctx context.Context, records []draw.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", describe(err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", describe(err))
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Numbers) != draw.PickCount {
			return fmt.Errorf("%w: round %d has %d numbers", draw.ErrInvalidArgument, r.Round, len(r.Numbers))
		}
		n := r.Numbers
		if _, err := stmt.ExecContext(ctx, r.Round, n[0], n[1], n[2], n[3], n[4], n[5], r.Bonus); err != nil {
			return fmt.Errorf("upsert round %d: %w", r.Round, describe(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", describe(err))
	}
	log.Info().Int("rows", len(records)).Msg("Upserted draws into postgres")
	return nil
}

// describe adds the server's error code to driver errors.
func describe(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "undefined_table":
		return fmt.Errorf("draws table missing (%s): %w", pqErr.Code, err)
	case "invalid_password", "invalid_authorization_specification":
		return fmt.Errorf("authentication rejected (%s): %w", pqErr.Code, err)
	}
	return fmt.Errorf("postgres %s: %w", pqErr.Code.Name(), err)
}
