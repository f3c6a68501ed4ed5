package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const orderNumberKey = "seq:order_number"

// SequenceStore hands out order numbers with INCR, which is atomic across
// every process sharing the Redis instance.
type SequenceStore struct {
	client *redis.Client
}

// NewSequenceStore creates a new SequenceStore.
func NewSequenceStore(client *redis.Client) *SequenceStore {
	return &SequenceStore{client: client}
}

// Next returns the next order number.
func (s *SequenceStore) Next(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, orderNumberKey).Result()
}

// advanceScript raises the counter to ARGV[1] unless it is already higher.
var advanceScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current < tonumber(ARGV[1]) then
	redis.call("SET", KEYS[1], ARGV[1])
end
return 0
`)

// Advance raises the counter so the next INCR returns more than floor.
func (s *SequenceStore) Advance(ctx context.Context, floor int64) error {
	return advanceScript.Run(ctx, s.client, []string{orderNumberKey}, floor).Err()
}
