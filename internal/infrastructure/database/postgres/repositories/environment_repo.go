package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

const (
	driverName = "postgres"

	// pgUniqueViolation is the SQLSTATE of a duplicate primary key.
	pgUniqueViolation = "23505"

	environmentColumns = `id, smirks, category, version, created_at, updated_at`
)

type postgresEnvironmentRepo struct {
	conn    *postgres.Connection
	log     logging.Logger
	metrics *prometheus.AppMetrics
}

// NewPostgresEnvironmentRepo stores environments in the environments table.
func NewPostgresEnvironmentRepo(conn *postgres.Connection, log logging.Logger, metrics *prometheus.AppMetrics) environment.Repository {
	if metrics == nil {
		metrics = prometheus.NewNoopMetrics()
	}
	return &postgresEnvironmentRepo{conn: conn, log: log, metrics: metrics}
}

func (r *postgresEnvironmentRepo) executor() queryExecutor {
	return r.conn.DB()
}

func (r *postgresEnvironmentRepo) observe(op, query string, start time.Time, rows int64, err error) {
	elapsed := time.Since(start)
	prometheus.RecordDBQuery(r.metrics, driverName, op, elapsed, err)
	// Missing rows are reported to callers, not logged as failures.
	if errors.IsNotFound(err) || errors.IsCode(err, errors.ErrCodeEnvironmentVersionConflict) || errors.IsCode(err, errors.ErrCodeConflict) {
		err = nil
	}
	logging.LogDatabaseQuery(r.log, query, elapsed, rows, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

const (
	insertEnvironmentQuery = `
		INSERT INTO environments (` + environmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateEnvironmentQuery = `
		UPDATE environments
		SET smirks = $2, category = $3, version = $4, updated_at = $5
		WHERE id = $1 AND version = $6`

	selectVersionQuery = `SELECT version FROM environments WHERE id = $1`
)

func (r *postgresEnvironmentRepo) Save(ctx context.Context, env *environment.Environment) error {
	if env.Version <= 1 {
		return r.insert(ctx, env)
	}
	return r.update(ctx, env)
}

func (r *postgresEnvironmentRepo) insert(ctx context.Context, env *environment.Environment) (err error) {
	start := time.Now()
	defer func() { r.observe("insert", insertEnvironmentQuery, start, 1, err) }()

	_, err = r.executor().ExecContext(ctx, insertEnvironmentQuery,
		env.ID.String(), env.SMIRKS, env.Category.String(), env.Version, env.CreatedAt, env.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return environment.AlreadyExists(env.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert environment")
	}
	return nil
}

func (r *postgresEnvironmentRepo) update(ctx context.Context, env *environment.Environment) (err error) {
	start := time.Now()
	var affected int64
	defer func() { r.observe("update", updateEnvironmentQuery, start, affected, err) }()

	expected := env.Version - 1
	res, err := r.executor().ExecContext(ctx, updateEnvironmentQuery,
		env.ID.String(), env.SMIRKS, env.Category.String(), env.Version, env.UpdatedAt, expected,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update environment")
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update environment")
	}
	if affected == 1 {
		return nil
	}

	var actual int64
	err = r.executor().QueryRowContext(ctx, selectVersionQuery, env.ID.String()).Scan(&actual)
	if stderrors.Is(err, sql.ErrNoRows) {
		return environment.NotFound(env.ID)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read environment version")
	}
	return environment.VersionConflict(env.ID, expected, actual)
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

const (
	findEnvironmentQuery   = `SELECT ` + environmentColumns + ` FROM environments WHERE id = $1`
	countEnvironmentsQuery = `SELECT COUNT(*) FROM environments`
	listEnvironmentsQuery  = `SELECT ` + environmentColumns + ` FROM environments ORDER BY created_at, id LIMIT $1 OFFSET $2`
	deleteEnvironmentQuery = `DELETE FROM environments WHERE id = $1`
)

func (r *postgresEnvironmentRepo) FindByID(ctx context.Context, id common.ID) (env *environment.Environment, err error) {
	start := time.Now()
	defer func() { r.observe("find", findEnvironmentQuery, start, 1, err) }()

	env, err = scanEnvironment(r.executor().QueryRowContext(ctx, findEnvironmentQuery, id.String()))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, environment.NotFound(id)
	}
	return env, err
}

func (r *postgresEnvironmentRepo) List(ctx context.Context, offset, limit int) (envs []*environment.Environment, total int64, err error) {
	start := time.Now()
	defer func() { r.observe("list", listEnvironmentsQuery, start, int64(len(envs)), err) }()

	if err = r.executor().QueryRowContext(ctx, countEnvironmentsQuery).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count environments")
	}
	r.metrics.EnvironmentsStored.WithLabelValues(driverName).Set(float64(total))
	if limit <= 0 || int64(offset) >= total {
		return []*environment.Environment{}, total, nil
	}

	rows, err := r.executor().QueryContext(ctx, listEnvironmentsQuery, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list environments")
	}
	defer rows.Close()

	envs = make([]*environment.Environment, 0, limit)
	for rows.Next() {
		env, scanErr := scanEnvironment(rows)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		envs = append(envs, env)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list environments")
	}
	return envs, total, nil
}

func (r *postgresEnvironmentRepo) Delete(ctx context.Context, id common.ID) (err error) {
	start := time.Now()
	var affected int64
	defer func() { r.observe("delete", deleteEnvironmentQuery, start, affected, err) }()

	res, err := r.executor().ExecContext(ctx, deleteEnvironmentQuery, id.String())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete environment")
	}
	if affected, err = res.RowsAffected(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete environment")
	}
	if affected == 0 {
		return environment.NotFound(id)
	}
	return nil
}

// scanEnvironment returns sql.ErrNoRows unchanged so callers can map it.
func scanEnvironment(row scanner) (*environment.Environment, error) {
	var rec envtypes.EnvironmentRecord
	err := row.Scan(&rec.ID, &rec.SMIRKS, &rec.Category, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan environment")
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return environment.FromRecord(rec)
}

//Personal.AI order the ending
