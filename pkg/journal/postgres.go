package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS crew_runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS crew_task_outputs (
	run_id TEXT NOT NULL REFERENCES crew_runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	task_id TEXT NOT NULL,
	agent TEXT NOT NULL,
	description TEXT NOT NULL,
	output TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// Postgres stores runs through a pgx connection pool.
type Postgres struct {
	DB *pgxpool.Pool
}

var _ Journal = (*Postgres)(nil)

// NewPostgres connects to connStr and creates the journal tables.
func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Begin(ctx context.Context, runID string) error {
	if err := requireRunID(runID); err != nil {
		return err
	}
	_, err := p.DB.Exec(ctx, `INSERT INTO crew_runs (id, started_at) VALUES ($1, $2)`, runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

func (p *Postgres) Append(ctx context.Context, runID string, out crew.TaskOutput) error {
	return pgx.BeginFunc(ctx, p.DB, func(tx pgx.Tx) error {
		var seq int
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(o.seq) + 1, 0)
			FROM crew_runs r LEFT JOIN crew_task_outputs o ON o.run_id = r.id
			WHERE r.id = $1
			GROUP BY r.id`, runID).Scan(&seq)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO crew_task_outputs (run_id, seq, task_id, agent, description, output, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, seq, out.TaskID, out.Agent, out.Description, out.Output, out.StartedAt, out.FinishedAt)
		return err
	})
}

func (p *Postgres) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := p.DB.Query(ctx, `
		SELECT seq, task_id, agent, description, output, started_at, finished_at
		FROM crew_task_outputs WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e := Entry{RunID: runID}
		if err := rows.Scan(&e.Seq, &e.TaskID, &e.Agent, &e.Description, &e.Output, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Close(context.Context) error {
	p.DB.Close()
	return nil
}
