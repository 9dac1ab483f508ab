package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
)

// Neo4j stores a run as (:Run)-[:PRODUCED]->(:TaskOutput) with consecutive
// outputs linked by NEXT.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ Journal = (*Neo4j)(nil)

// NewNeo4j connects to uri. An empty user connects without auth.
func NewNeo4j(ctx context.Context, uri, user, password, database string) (*Neo4j, error) {
	var auth neo4j.AuthToken
	if user != "" {
		auth = neo4j.BasicAuth(user, password, "")
	} else {
		auth = neo4j.NoAuth()
	}
	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j unreachable: %w", err)
	}
	return &Neo4j{driver: driver, database: database}, nil
}

func (n *Neo4j) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: n.database})
}

func (n *Neo4j) Begin(ctx context.Context, runID string) error {
	if err := requireRunID(runID); err != nil {
		return err
	}
	session := n.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.Run(ctx, `CREATE (:Run {id: $id, started_at: $started})`,
		map[string]any{"id": runID, "started": time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

func (n *Neo4j) Append(ctx context.Context, runID string, out crew.TaskOutput) error {
	session := n.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (r:Run {id: $run})
			OPTIONAL MATCH (r)-[:PRODUCED]->(prev:TaskOutput)
			WITH r, prev ORDER BY prev.seq DESC LIMIT 1
			CREATE (r)-[:PRODUCED]->(o:TaskOutput {
				seq: coalesce(prev.seq + 1, 0),
				task_id: $task_id, agent: $agent, description: $description, output: $output,
				started_at: $started_at, finished_at: $finished_at
			})
			FOREACH (p IN CASE WHEN prev IS NULL THEN [] ELSE [prev] END | CREATE (p)-[:NEXT]->(o))
			RETURN o.seq AS seq`,
			map[string]any{
				"run":         runID,
				"task_id":     out.TaskID,
				"agent":       out.Agent,
				"description": out.Description,
				"output":      out.Output,
				"started_at":  out.StartedAt.UTC(),
				"finished_at": out.FinishedAt.UTC(),
			})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
		}
		return nil, nil
	})
	return err
}

func (n *Neo4j) Entries(ctx context.Context, runID string) ([]Entry, error) {
	session := n.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:Run {id: $run})-[:PRODUCED]->(o:TaskOutput)
		RETURN o.seq AS seq, o.task_id AS task_id, o.agent AS agent, o.description AS description,
		       o.output AS output, o.started_at AS started_at, o.finished_at AS finished_at
		ORDER BY o.seq`, map[string]any{"run": runID})
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var entries []Entry
	for result.Next(ctx) {
		rec := result.Record()
		e := Entry{RunID: runID}
		if v, ok := rec.Get("seq"); ok {
			if seq, ok := v.(int64); ok {
				e.Seq = int(seq)
			}
		}
		e.TaskID = recordString(rec, "task_id")
		e.Agent = recordString(rec, "agent")
		e.Description = recordString(rec, "description")
		e.Output = recordString(rec, "output")
		e.StartedAt = recordTime(rec, "started_at")
		e.FinishedAt = recordTime(rec, "finished_at")
		entries = append(entries, e)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("result iteration failed: %w", err)
	}
	return entries, nil
}

func (n *Neo4j) Close(ctx context.Context) error {
	return n.driver.Close(ctx)
}

func recordString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func recordTime(rec *neo4j.Record, key string) time.Time {
	v, _ := rec.Get(key)
	t, _ := v.(time.Time)
	return t
}
