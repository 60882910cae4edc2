package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-auth-service/internal/domain/repository"
)

func keyOTPEmail(email string) string { return "otp:email:" + email }
func keyOTPCode(code string) string   { return "otp:code:" + code }

// reserveScript keeps one live code per email and one owner per live code.
// Returns {code, 1} when a code is stored or reused, {"", 0} on collision.
var reserveScript = redis.NewScript(`
local existing = redis.call("GET", KEYS[1])
if existing then
  return {existing, 1}
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return {"", 0}
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return {ARGV[1], 1}
`)

// consumeScript deletes both keys when the stored code matches.
var consumeScript = redis.NewScript(`
local stored = redis.call("GET", KEYS[1])
if not stored or stored ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1], KEYS[2])
return 1
`)

// OTPStore keeps one-time codes in redis; expiry is the key TTL.
type OTPStore struct {
	rdb redis.UniversalClient
}

func NewOTPStore(rdb redis.UniversalClient) *OTPStore {
	return &OTPStore{rdb: rdb}
}

func (s *OTPStore) FindByEmail(ctx context.Context, email string) (string, error) {
	code, err := s.rdb.Get(ctx, keyOTPEmail(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get otp: %w", err)
	}
	return code, nil
}

func (s *OTPStore) Reserve(ctx context.Context, email, code string, ttl time.Duration) (string, bool, error) {
	res, err := reserveScript.Run(ctx, s.rdb,
		[]string{keyOTPEmail(email), keyOTPCode(code)},
		code, email, ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return "", false, fmt.Errorf("reserve otp: %w", err)
	}
	if len(res) != 2 {
		return "", false, fmt.Errorf("reserve otp: unexpected reply %v", res)
	}
	stored, _ := res[0].(string)
	ok, _ := res[1].(int64)
	return stored, ok == 1, nil
}

func (s *OTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.rdb,
		[]string{keyOTPEmail(email), keyOTPCode(code)},
		code,
	).Int()
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return n == 1, nil
}

var _ repository.OTPRepository = (*OTPStore)(nil)
