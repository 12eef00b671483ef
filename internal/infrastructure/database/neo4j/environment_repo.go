package neo4j

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

const driverName = "neo4j"

// Each environment is one :Environment node. Timestamps are stored as Unix
// nanoseconds so ordering survives the round trip exactly.
const (
	environmentReturn = `
		RETURN e.id AS id, e.smirks AS smirks, e.category AS category,
		       e.version AS version, e.created_at AS created_at, e.updated_at AS updated_at`

	schemaConstraintQuery = `CREATE CONSTRAINT environment_id IF NOT EXISTS FOR (e:Environment) REQUIRE e.id IS UNIQUE`
	schemaIndexQuery      = `CREATE INDEX environment_created_at IF NOT EXISTS FOR (e:Environment) ON (e.created_at)`

	versionQuery = `MATCH (e:Environment {id: $id}) RETURN e.version AS version`

	createQuery = `
		CREATE (e:Environment {id: $id, smirks: $smirks, category: $category,
		        version: $version, created_at: $created_at, updated_at: $updated_at})`

	updateQuery = `
		MATCH (e:Environment {id: $id})
		WHERE e.version = $expected
		SET e.smirks = $smirks, e.category = $category, e.version = $version, e.updated_at = $updated_at
		RETURN e.version AS version`

	findQuery   = `MATCH (e:Environment {id: $id})` + environmentReturn
	countQuery  = `MATCH (e:Environment) RETURN count(e) AS total`
	listQuery   = `MATCH (e:Environment)` + environmentReturn + ` ORDER BY created_at, id SKIP $offset LIMIT $limit`
	deleteQuery = `MATCH (e:Environment {id: $id}) DETACH DELETE e RETURN count(e) AS deleted`
)

type environmentRepo struct {
	runner  TxRunner
	log     logging.Logger
	metrics *prometheus.AppMetrics
}

// NewEnvironmentRepository stores environments as graph nodes.
func NewEnvironmentRepository(runner TxRunner, log logging.Logger, metrics *prometheus.AppMetrics) environment.Repository {
	if metrics == nil {
		metrics = prometheus.NewNoopMetrics()
	}
	return &environmentRepo{runner: runner, log: log, metrics: metrics}
}

// EnsureSchema creates the id constraint and the ordering index.
func EnsureSchema(ctx context.Context, runner TxRunner) error {
	for _, q := range []string{schemaConstraintQuery, schemaIndexQuery} {
		query := q
		if _, err := runner.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
			return run(ctx, tx, query, nil)
		}); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create neo4j schema")
		}
	}
	return nil
}

func (r *environmentRepo) observe(op, query string, start time.Time, rows int64, err error) {
	elapsed := time.Since(start)
	prometheus.RecordDBQuery(r.metrics, driverName, op, elapsed, err)
	if errors.IsNotFound(err) || errors.IsCode(err, errors.ErrCodeEnvironmentVersionConflict) || errors.IsCode(err, errors.ErrCodeConflict) {
		err = nil
	}
	logging.LogDatabaseQuery(r.log, query, elapsed, rows, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

func (r *environmentRepo) Save(ctx context.Context, env *environment.Environment) (err error) {
	start := time.Now()
	op, query := "update", updateQuery
	if env.Version <= 1 {
		op, query = "insert", createQuery
	}
	defer func() { r.observe(op, query, start, 1, err) }()

	params := map[string]any{
		"id":         env.ID.String(),
		"smirks":     env.SMIRKS,
		"category":   env.Category.String(),
		"version":    env.Version,
		"created_at": env.CreatedAt.UnixNano(),
		"updated_at": env.UpdatedAt.UnixNano(),
	}
	_, err = r.runner.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		if env.Version <= 1 {
			return nil, insert(ctx, tx, env.ID, params)
		}
		return nil, update(ctx, tx, env, params)
	})
	return err
}

func insert(ctx context.Context, tx Transaction, id common.ID, params map[string]any) error {
	if _, found, err := storedVersion(ctx, tx, id); err != nil {
		return err
	} else if found {
		return environment.AlreadyExists(id)
	}
	_, err := run(ctx, tx, createQuery, params)
	return err
}

func update(ctx context.Context, tx Transaction, env *environment.Environment, params map[string]any) error {
	expected := env.Version - 1
	params["expected"] = expected
	res, err := tx.Run(ctx, updateQuery, params)
	if err != nil {
		return err
	}
	if _, err := ExtractSingleRecord(ctx, res, int64Value("version")); err == nil {
		return nil
	} else if !stderrors.Is(err, errNoRecord) {
		return err
	}

	actual, found, err := storedVersion(ctx, tx, env.ID)
	if err != nil {
		return err
	}
	if !found {
		return environment.NotFound(env.ID)
	}
	return environment.VersionConflict(env.ID, expected, actual)
}

func storedVersion(ctx context.Context, tx Transaction, id common.ID) (int64, bool, error) {
	res, err := tx.Run(ctx, versionQuery, map[string]any{"id": id.String()})
	if err != nil {
		return 0, false, err
	}
	v, err := ExtractSingleRecord(ctx, res, int64Value("version"))
	if stderrors.Is(err, errNoRecord) {
		return 0, false, nil
	}
	return v, err == nil, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

func (r *environmentRepo) FindByID(ctx context.Context, id common.ID) (env *environment.Environment, err error) {
	start := time.Now()
	defer func() { r.observe("find", findQuery, start, 1, err) }()

	out, err := r.runner.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, findQuery, map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		env, err := ExtractSingleRecord(ctx, res, recordToEnvironment)
		if stderrors.Is(err, errNoRecord) {
			return nil, environment.NotFound(id)
		}
		return env, err
	})
	if err != nil {
		return nil, err
	}
	return out.(*environment.Environment), nil
}

type page struct {
	envs  []*environment.Environment
	total int64
}

func (r *environmentRepo) List(ctx context.Context, offset, limit int) (envs []*environment.Environment, total int64, err error) {
	start := time.Now()
	defer func() { r.observe("list", listQuery, start, int64(len(envs)), err) }()

	out, err := r.runner.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, countQuery, nil)
		if err != nil {
			return nil, err
		}
		total, err := ExtractSingleRecord(ctx, res, int64Value("total"))
		if err != nil {
			return nil, err
		}
		p := page{envs: []*environment.Environment{}, total: total}
		if limit <= 0 || int64(offset) >= total {
			return p, nil
		}

		res, err = tx.Run(ctx, listQuery, map[string]any{"offset": int64(offset), "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		items, err := CollectRecords(ctx, res, recordToEnvironment)
		if err != nil {
			return nil, err
		}
		if items != nil {
			p.envs = items
		}
		return p, nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list environments")
	}
	p := out.(page)
	r.metrics.EnvironmentsStored.WithLabelValues(driverName).Set(float64(p.total))
	return p.envs, p.total, nil
}

func (r *environmentRepo) Delete(ctx context.Context, id common.ID) (err error) {
	start := time.Now()
	var deleted int64
	defer func() { r.observe("delete", deleteQuery, start, deleted, err) }()

	out, err := r.runner.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, deleteQuery, map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		return ExtractSingleRecord(ctx, res, int64Value("deleted"))
	})
	if err != nil {
		return err
	}
	if deleted = out.(int64); deleted == 0 {
		return environment.NotFound(id)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Record mapping
// ─────────────────────────────────────────────────────────────────────────────

func run(ctx context.Context, tx Transaction, query string, params map[string]any) (any, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	_, err = res.Consume(ctx)
	return nil, err
}

func int64Value(key string) func(*neo4j.Record) (int64, error) {
	return func(rec *neo4j.Record) (int64, error) {
		return getInt64(rec, key)
	}
}

func getInt64(rec *neo4j.Record, key string) (int64, error) {
	v, ok := rec.Get(key)
	if !ok {
		return 0, fmt.Errorf("neo4j: missing column %q", key)
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("neo4j: column %q is %T, want int64", key, v)
	}
	return n, nil
}

func getString(rec *neo4j.Record, key string) (string, error) {
	v, ok := rec.Get(key)
	if !ok {
		return "", fmt.Errorf("neo4j: missing column %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("neo4j: column %q is %T, want string", key, v)
	}
	return s, nil
}

func recordToEnvironment(rec *neo4j.Record) (*environment.Environment, error) {
	var (
		r   envtypes.EnvironmentRecord
		err error
	)
	if r.ID, err = getString(rec, "id"); err != nil {
		return nil, err
	}
	if r.SMIRKS, err = getString(rec, "smirks"); err != nil {
		return nil, err
	}
	if r.Category, err = getString(rec, "category"); err != nil {
		return nil, err
	}
	if r.Version, err = getInt64(rec, "version"); err != nil {
		return nil, err
	}
	created, err := getInt64(rec, "created_at")
	if err != nil {
		return nil, err
	}
	updated, err := getInt64(rec, "updated_at")
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return environment.FromRecord(r)
}

//Personal.AI order the ending
