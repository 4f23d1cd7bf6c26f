package attendance

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rollcall/internal/model"
)

// Guard claims a key once. It backs the optional per-day duplicate rule that
// closes the check-then-record race.
type Guard interface {
	Claim(ctx context.Context, key string) (bool, error)
	// Release drops a claim whose record was never written.
	Release(ctx context.Context, key string) error
}

// DayKey is studentName|courseCode|D-M-YYYY.
func DayKey(rec model.AttendanceRecord) string {
	return strings.Join([]string{rec.StudentName, rec.CourseCode, model.DatePart(rec.Date)}, "|")
}

// MemoryGuard holds claims for the life of the process.
type MemoryGuard struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{claims: make(map[string]struct{})}
}

func (g *MemoryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.claims[key]; taken {
		return false, nil
	}
	g.claims[key] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, key)
	return nil
}

// RedisGuard claims keys with SETNX so every API replica shares them.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisGuard expires claims after ttl; 36h when ttl is not positive.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 36 * time.Hour
	}
	return &RedisGuard{client: client, prefix: "rollcall:dedup:", ttl: ttl}
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+key, 1, g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+key).Err()
}
