package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

const driverName = "redis"

// Each environment is a hash {version, data} under env:<id>; env:index is a
// sorted set of ids scored by creation time.
//
// saveScript returns 0 on success, -1 when an insert finds the key taken,
// -2 when an update finds no key, and the stored version on a mismatch.
var saveScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
local expected = tonumber(ARGV[1])
if expected == 0 then
	if cur then return -1 end
elseif not cur then
	return -2
elseif tonumber(cur) ~= expected then
	return tonumber(cur)
end
redis.call('HSET', KEYS[1], 'version', ARGV[2], 'data', ARGV[3])
if expected == 0 then
	redis.call('ZADD', KEYS[2], ARGV[4], ARGV[5])
end
return 0
`)

var deleteScript = redis.NewScript(`
local n = redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return n
`)

type environmentRepo struct {
	client  *Client
	log     logging.Logger
	metrics *prometheus.AppMetrics
}

// NewEnvironmentRepository stores environments in Redis.
func NewEnvironmentRepository(client *Client, log logging.Logger, metrics *prometheus.AppMetrics) environment.Repository {
	if metrics == nil {
		metrics = prometheus.NewNoopMetrics()
	}
	return &environmentRepo{client: client, log: log, metrics: metrics}
}

func (r *environmentRepo) hashKey(id common.ID) string { return r.client.Key("env", id.String()) }
func (r *environmentRepo) indexKey() string            { return r.client.Key("env", "index") }

func (r *environmentRepo) observe(op string, start time.Time, err error) {
	prometheus.RecordDBQuery(r.metrics, driverName, op, time.Since(start), err)
}

func (r *environmentRepo) Save(ctx context.Context, env *environment.Environment) (err error) {
	defer func(start time.Time) { r.observe("save", start, err) }(time.Now())

	data, err := json.Marshal(env.ToRecord())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode environment")
	}

	expected := env.Version - 1
	res, err := r.client.Run(ctx, saveScript,
		[]string{r.hashKey(env.ID), r.indexKey()},
		expected, env.Version, data, env.CreatedAt.UnixNano(), env.ID.String(),
	).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to save environment")
	}

	switch {
	case res == 0:
		return nil
	case res == -1:
		return environment.AlreadyExists(env.ID)
	case res == -2:
		return environment.NotFound(env.ID)
	default:
		return environment.VersionConflict(env.ID, expected, res)
	}
}

func (r *environmentRepo) FindByID(ctx context.Context, id common.ID) (env *environment.Environment, err error) {
	defer func(start time.Time) { r.observe("find", start, err) }(time.Now())

	raw, err := r.client.HGet(ctx, r.hashKey(id), "data").Bytes()
	if err == redis.Nil {
		return nil, environment.NotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to load environment")
	}
	return decodeEnvironment(raw)
}

func (r *environmentRepo) List(ctx context.Context, offset, limit int) (envs []*environment.Environment, total int64, err error) {
	defer func(start time.Time) { r.observe("list", start, err) }(time.Now())

	total, err = r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeCacheError, "failed to count environments")
	}
	r.metrics.EnvironmentsStored.WithLabelValues(driverName).Set(float64(total))
	if limit <= 0 || int64(offset) >= total {
		return []*environment.Environment{}, total, nil
	}

	ids, err := r.client.ZRange(ctx, r.indexKey(), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeCacheError, "failed to list environments")
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, r.hashKey(common.ID(id)), "data")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeCacheError, "failed to load environments")
	}

	envs = make([]*environment.Environment, 0, len(ids))
	for i, cmd := range cmds {
		raw, cmdErr := cmd.Bytes()
		if cmdErr == redis.Nil {
			// Deleted between ZRANGE and HGET.
			r.log.Debug("skipping vanished environment", logging.String(logging.FieldEnvironmentID, ids[i]))
			continue
		}
		if cmdErr != nil {
			return nil, 0, errors.Wrap(cmdErr, errors.ErrCodeCacheError, "failed to load environment")
		}
		env, decErr := decodeEnvironment(raw)
		if decErr != nil {
			return nil, 0, decErr
		}
		envs = append(envs, env)
	}
	return envs, total, nil
}

func (r *environmentRepo) Delete(ctx context.Context, id common.ID) (err error) {
	defer func(start time.Time) { r.observe("delete", start, err) }(time.Now())

	n, err := r.client.Run(ctx, deleteScript, []string{r.hashKey(id), r.indexKey()}, id.String()).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete environment")
	}
	if n == 0 {
		return environment.NotFound(id)
	}
	return nil
}

func decodeEnvironment(raw []byte) (*environment.Environment, error) {
	var rec envtypes.EnvironmentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode environment")
	}
	return environment.FromRecord(rec)
}

//Personal.AI order the ending
