package helpers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func keyRevokedAfter(uid string) string {
	return "session:revoked_after:" + uid
}

// RevocationStore keeps, per user, the instant (in Unix milliseconds) before
// which every session credential is considered revoked. Nothing about individual sessions is
// stored.
type RevocationStore struct {
	rdb *redis.Client
	ttl time.Duration
	dl  Deadline
}

// NewRevocationStore keeps markers for ttl, which should be at least the
// session lifetime so a marker outlives every credential it revokes.
func NewRevocationStore(rdb *redis.Client, ttl time.Duration, dl Deadline) *RevocationStore {
	return &RevocationStore{rdb: rdb, ttl: ttl, dl: dl}
}

func (s *RevocationStore) Revoke(ctx context.Context, uid string, at time.Time) error {
	ctx, cancel := s.dl.Apply(ctx)
	defer cancel()
	return s.rdb.Set(ctx, keyRevokedAfter(uid), strconv.FormatInt(at.UnixMilli(), 10), s.ttl).Err()
}

// RevokedAfter returns the revocation instant for uid, or the zero time.
func (s *RevocationStore) RevokedAfter(ctx context.Context, uid string) (time.Time, error) {
	ctx, cancel := s.dl.Apply(ctx)
	defer cancel()
	v, err := s.rdb.Get(ctx, keyRevokedAfter(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
