// Package sessionmap implements the optional, explicitly non-authoritative
// session map described in spec §4.3: a best-effort Redis-backed lookup
// from an opaque session token to the player id currently holding it,
// intended for fleet-wide lookups (which pod holds this player's
// connection) — never for enforcing room membership or capacity, which
// remain room.Registry's job alone.
//
// Grounded on the teacher's internal/v1/bus.Service: a gobreaker circuit
// breaker wraps every Redis call, and on an open breaker every method except
// Ping degrades gracefully (returns zero values, drops writes) rather than
// propagating an error to the caller; Ping returns the error.
package sessionmap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/vrsocial/roomcore/internal/v1/metrics"
)

const keyPrefix = "roomcore:session:"

// Map is the optional Redis-backed session map. A nil *Map is valid and
// behaves as a no-op, matching single-instance deployments that run
// without Redis at all (spec §4.3: "Non-goal: this is not required for
// correctness").
type Map struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// New connects to Redis at addr and wraps calls in a circuit breaker.
// Ping verifies connectivity immediately so misconfiguration surfaces at
// startup rather than on first use.
func New(addr, password string) (*Map, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "sessionmap",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateVal)
		},
	}

	return &Map{client: client, cb: gobreaker.NewCircuitBreaker(st)}, nil
}

// NewFromClient wraps an already-constructed redis.Client, for tests that
// point at a miniredis instance.
func NewFromClient(client *redis.Client) *Map {
	st := gobreaker.Settings{Name: "sessionmap"}
	return &Map{client: client, cb: gobreaker.NewCircuitBreaker(st)}
}

// Bind records that token currently resolves to playerID, with the given
// TTL. A failure (including an open breaker) is swallowed: the session
// map is a cache, never the source of truth (spec §4.3).
func (m *Map) Bind(ctx context.Context, token, playerID string, ttl time.Duration) {
	if m == nil || m.client == nil {
		return
	}

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.client.Set(ctx, keyPrefix+token, playerID, ttl).Err()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("sessionmap").Inc()
		}
		metrics.SessionMapOperations.WithLabelValues("bind", "failed").Inc()
		return
	}
	metrics.SessionMapOperations.WithLabelValues("bind", "ok").Inc()
}

// Lookup resolves token to a player id. ok is false both when the token
// is unknown and when the session map is unreachable — callers must not
// distinguish the two, since the map is advisory only. A plain cache miss
// (redis.Nil) never reaches the breaker as a failure — only transport
// errors do, the same miss/failure split the teacher's bus service draws.
func (m *Map) Lookup(ctx context.Context, token string) (playerID string, ok bool) {
	if m == nil || m.client == nil {
		return "", false
	}

	res, err := m.cb.Execute(func() (interface{}, error) {
		v, err := m.client.Get(ctx, keyPrefix+token).Result()
		if err == redis.Nil {
			return "", nil
		}
		return v, err
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("sessionmap").Inc()
		}
		metrics.SessionMapOperations.WithLabelValues("lookup", "failed").Inc()
		return "", false
	}

	playerID, ok = res.(string)
	if !ok || playerID == "" {
		metrics.SessionMapOperations.WithLabelValues("lookup", "miss").Inc()
		return "", false
	}
	metrics.SessionMapOperations.WithLabelValues("lookup", "ok").Inc()
	return playerID, true
}

// Unbind removes token's entry, if any.
func (m *Map) Unbind(ctx context.Context, token string) {
	if m == nil || m.client == nil {
		return
	}

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.client.Del(ctx, keyPrefix+token).Err()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("sessionmap").Inc()
		}
		metrics.SessionMapOperations.WithLabelValues("unbind", "failed").Inc()
		return
	}
	metrics.SessionMapOperations.WithLabelValues("unbind", "ok").Inc()
}

// Ping reports whether Redis is currently reachable. Used by the health
// endpoint; a nil Map always reports healthy, since no session map was
// configured in the first place.
func (m *Map) Ping(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.client.Ping(ctx).Err()
	})
	return err
}

// Close releases the underlying Redis connection.
func (m *Map) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}
