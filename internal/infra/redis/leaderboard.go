package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/game"
)

// Leaderboard caches top-N snapshots in Redis in front of a backing store.
// Snapshots are stored as: HSET leaderboard:top {limit} {json entries}
// A submission writes through to the backing store and drops the hash.
type Leaderboard struct {
	client  *redis.Client
	backing game.LeaderboardProvider
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewLeaderboard(client *redis.Client, backing game.LeaderboardProvider, ttl time.Duration) *Leaderboard {
	return &Leaderboard{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const topKey = "leaderboard:top"

func (l *Leaderboard) FetchTop(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	field := strconv.Itoa(limit)
	if entries, ok := l.cached(ctx, field); ok {
		return entries, nil
	}

	result, err, _ := l.sf.Do(field, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if entries, ok := l.cached(ctx, field); ok {
			return entries, nil
		}

		entries, err := l.backing.FetchTop(ctx, limit)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []domain.LeaderboardEntry{}
		}

		raw, err := json.Marshal(entries)
		if err == nil {
			pipe := l.client.Pipeline()
			pipe.HSet(ctx, topKey, field, raw)
			if ttl := l.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, topKey, ttl)
			}
			_, _ = pipe.Exec(ctx)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

func (l *Leaderboard) Submit(ctx context.Context, playerName string, score int) error {
	if err := l.backing.Submit(ctx, playerName, score); err != nil {
		return err
	}
	// a stale snapshot only delays a refresh, so the delete is best-effort
	_ = l.client.Del(ctx, topKey).Err()
	return nil
}

func (l *Leaderboard) cached(ctx context.Context, field string) ([]domain.LeaderboardEntry, bool) {
	raw, err := l.client.HGet(ctx, topKey, field).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (l *Leaderboard) ttlWithJitter() time.Duration {
	if l.ttl <= 0 {
		return 0
	}
	jitterMax := int64(l.ttl) / 10
	l.rndMu.Lock()
	defer l.rndMu.Unlock()
	return l.ttl + time.Duration(l.rnd.Int63n(jitterMax+1))
}
