// Package journal persists the ordered task log of each run so a finished or
// aborted run can be inspected afterwards.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/funeral-research/pkg/config"
	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverNeo4j    = "neo4j"
)

const defaultDatabase = "funeral_research"

// ErrUnknownRun is returned when appending to or reading a run that was never begun.
var ErrUnknownRun = errors.New("journal: unknown run")

// Entry is one persisted task output.
type Entry struct {
	RunID string
	Seq   int
	crew.TaskOutput
}

// Journal is a crew.Journal that can also be read back and closed.
type Journal interface {
	crew.Journal
	Entries(ctx context.Context, runID string) ([]Entry, error)
	Close(ctx context.Context) error
}

// Open selects the driver named in cfg. An empty driver means memory.
func Open(ctx context.Context, cfg config.JournalConfig) (Journal, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver != "" && driver != DriverMemory && strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("journal %s: dsn is required", driver)
	}
	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}

	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "sqlite3":
		j, err := NewSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("journal sqlite: %w", err)
		}
		return j, nil
	case DriverPostgres, "postgresql", "pg":
		j, err := NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("journal postgres: %w", err)
		}
		return j, nil
	case DriverMongo, "mongodb":
		j, err := NewMongo(ctx, cfg.DSN, database)
		if err != nil {
			return nil, fmt.Errorf("journal mongo: %w", err)
		}
		return j, nil
	case DriverNeo4j:
		j, err := NewNeo4j(ctx, cfg.DSN, cfg.User, cfg.Password, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("journal neo4j: %w", err)
		}
		return j, nil
	default:
		return nil, fmt.Errorf("journal: unknown driver %q", cfg.Driver)
	}
}

func requireRunID(runID string) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("journal: run id is required")
	}
	return nil
}
