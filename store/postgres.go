// ABOUTME: PostgreSQL store for scenarios and sweep runs using pgx
// ABOUTME: Scenarios and run outcomes are stored as JSONB documents

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obgclub/capacity-planner/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	name        text PRIMARY KEY,
	fingerprint text NOT NULL,
	body        jsonb NOT NULL,
	updated_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id           uuid PRIMARY KEY,
	scenario     text NOT NULL,
	fingerprint  text NOT NULL,
	created_at   timestamptz NOT NULL,
	max_feasible integer,
	outcomes     jsonb NOT NULL
);

CREATE INDEX IF NOT EXISTS analysis_runs_scenario_created
	ON analysis_runs (scenario, created_at DESC);
`

// Postgres is a Store backed by a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects, pings and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) GetScenario(ctx context.Context, name string) (models.Scenario, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, `SELECT body FROM scenarios WHERE name = $1`, name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Scenario{}, fmt.Errorf("scenario %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Scenario{}, err
	}

	var sc models.Scenario
	if err := json.Unmarshal(body, &sc); err != nil {
		return models.Scenario{}, fmt.Errorf("decoding scenario %q: %w", name, err)
	}
	sc.Name = name
	return sc, nil
}

func (p *Postgres) PutScenario(ctx context.Context, sc models.Scenario) error {
	if err := ValidateName(sc.Name); err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(sc)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO scenarios (name, fingerprint, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (name)
		DO UPDATE SET fingerprint = EXCLUDED.fingerprint,
		              body = EXCLUDED.body,
		              updated_at = now()
	`, sc.Name, sc.Fingerprint(), body)
	return err
}

func (p *Postgres) ListScenarios(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT name FROM scenarios ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (p *Postgres) RecordRun(ctx context.Context, run models.AnalysisRun) error {
	outcomes, err := json.Marshal(run.Outcomes)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO analysis_runs (id, scenario, fingerprint, created_at, max_feasible, outcomes)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
	`, run.ID, run.Scenario, run.Fingerprint, run.CreatedAt, run.MaxFeasible, outcomes)
	return err
}

const runColumns = `id::text, scenario, fingerprint, created_at, max_feasible, outcomes`

func scanRun(row pgx.Row) (models.AnalysisRun, error) {
	var (
		run      models.AnalysisRun
		outcomes []byte
	)
	if err := row.Scan(&run.ID, &run.Scenario, &run.Fingerprint, &run.CreatedAt, &run.MaxFeasible, &outcomes); err != nil {
		return models.AnalysisRun{}, err
	}
	if err := json.Unmarshal(outcomes, &run.Outcomes); err != nil {
		return models.AnalysisRun{}, fmt.Errorf("decoding run %s: %w", run.ID, err)
	}
	return run, nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (models.AnalysisRun, error) {
	run, err := scanRun(p.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AnalysisRun{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return run, err
}

func (p *Postgres) ListRuns(ctx context.Context, scenario string, limit int) ([]models.AnalysisRun, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM analysis_runs
		WHERE $1 = '' OR scenario = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, scenario, runLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
