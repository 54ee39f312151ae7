package breaker

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "cb:"
	redisRegistry   = "cb:services"
	redisStateTTL   = 7 * 24 * time.Hour
	stateFieldState = "state"
)

// Transition scripts run server-side so concurrent processes sharing one
// redis cannot interleave a read-then-write and double-transition a circuit.
var acquireScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state or state == 'closed' then
  return 0
end
local now = tonumber(ARGV[1])
local reset = tonumber(ARGV[2])
if state == 'open' then
  local opened = tonumber(redis.call('HGET', KEYS[1], 'opened_at')) or 0
  if now - opened < reset then
    return 2
  end
  redis.call('HSET', KEYS[1], 'state', 'half-open', 'trial_at', now)
  return 1
end
local trial = tonumber(redis.call('HGET', KEYS[1], 'trial_at')) or 0
if trial == 0 or now - trial >= reset then
  redis.call('HSET', KEYS[1], 'trial_at', now)
  return 1
end
return 2
`)

var successScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if ARGV[1] == '1' or state == 'half-open' then
  redis.call('HSET', KEYS[1], 'state', 'closed')
  redis.call('HDEL', KEYS[1], 'opened_at')
end
redis.call('HSET', KEYS[1], 'failures', 0)
redis.call('HDEL', KEYS[1], 'trial_at')
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

var failureScript = redis.NewScript(`
redis.call('HSET', KEYS[1], 'last_failure', ARGV[1])
local state = redis.call('HGET', KEYS[1], 'state')
if not state then
  redis.call('HSET', KEYS[1], 'state', 'closed')
  state = 'closed'
end
local opened = 0
if ARGV[3] == '1' or state == 'half-open' then
  redis.call('HSET', KEYS[1], 'state', 'open', 'opened_at', ARGV[1])
  redis.call('HDEL', KEYS[1], 'trial_at')
  opened = 1
else
  local failures = redis.call('HINCRBY', KEYS[1], 'failures', 1)
  if failures >= tonumber(ARGV[2]) then
    redis.call('HSET', KEYS[1], 'state', 'open', 'opened_at', ARGV[1])
    opened = 1
  end
end
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return opened
`)

// RedisStore keeps breaker state in a shared redis so every process gating
// the same downstream service sees one circuit.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(service string) string { return redisKeyPrefix + service }

func (s *RedisStore) Acquire(ctx context.Context, service string, resetTimeout time.Duration, now time.Time) (Decision, error) {
	res, err := acquireScript.Run(ctx, s.rdb, []string{redisKey(service)},
		now.UnixMilli(), resetTimeout.Milliseconds()).Int()
	if err != nil {
		return Proceed, err
	}
	return Decision(res), nil
}

func (s *RedisStore) Success(ctx context.Context, service string, trial bool) error {
	if err := s.register(ctx, service); err != nil {
		return err
	}
	return successScript.Run(ctx, s.rdb, []string{redisKey(service)},
		boolArg(trial), redisStateTTL.Milliseconds()).Err()
}

func (s *RedisStore) Failure(ctx context.Context, service string, threshold int, trial bool, now time.Time) error {
	if err := s.register(ctx, service); err != nil {
		return err
	}
	return failureScript.Run(ctx, s.rdb, []string{redisKey(service)},
		now.UnixMilli(), threshold, boolArg(trial), redisStateTTL.Milliseconds()).Err()
}

func (s *RedisStore) Release(ctx context.Context, service string) error {
	return s.rdb.HDel(ctx, redisKey(service), "trial_at").Err()
}

func (s *RedisStore) Reset(ctx context.Context, service string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, redisKey(service))
	pipe.SAdd(ctx, redisRegistry, service)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Status(ctx context.Context, service string) (Status, error) {
	fields, err := s.rdb.HGetAll(ctx, redisKey(service)).Result()
	if err != nil {
		return Status{}, err
	}

	status := Status{Service: service, State: StateClosed}
	if st, ok := fields[stateFieldState]; ok && st != "" {
		status.State = State(st)
	}
	if v, ok := fields["failures"]; ok {
		status.FailureCount, _ = strconv.Atoi(v)
	}
	if t := parseMillis(fields["last_failure"]); t != nil {
		status.LastFailureAt = t
	}
	if t := parseMillis(fields["opened_at"]); t != nil {
		status.OpenedAt = t
	}
	return status, nil
}

func (s *RedisStore) All(ctx context.Context) ([]Status, error) {
	services, err := s.rdb.SMembers(ctx, redisRegistry).Result()
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(services))
	for _, service := range services {
		status, err := s.Status(ctx, service)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *RedisStore) register(ctx context.Context, service string) error {
	return s.rdb.SAdd(ctx, redisRegistry, service).Err()
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseMillis(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
