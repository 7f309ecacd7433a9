package tokenstore

import (
	"context"
	"fmt"
	c "onetime/internal/core/domain/common"
	e "onetime/internal/core/domain/errors"
	"onetime/internal/core/domain/token"
	"onetime/internal/core/domain/user"
	"strconv"
	"time"

	"github.com/go-redis/redis/v9"
)

// markCompleted is a compare-and-set on the completed field, so that
// concurrent completion attempts resolve to exactly one winner.
var markCompleted = redis.NewScript(`
if redis.call("HGET", KEYS[1], "completed") == "0" then
	redis.call("HSET", KEYS[1], "completed", "1", "completed_at", ARGV[1])
	return 1
end
return 0
`)

// RedisTokenStore keeps tokens in Redis hashes with a per-prefix index
// sorted by creation time. Iteration order for GetOne is oldest first,
// matching the insertion order of the SQL store.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string, now func() time.Time) *RedisTokenStore {
	if client == nil {
		panic(e.NewNilArgumentError("client"))
	}
	if prefix == "" {
		panic(e.NewNilArgumentError("prefix"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &RedisTokenStore{client: client, prefix: prefix, now: now}
}

func (s *RedisTokenStore) Create(ctx context.Context, input token.CreateInput) (t token.Token, err error) {
	id, err := s.client.Incr(ctx, s.key("next_id")).Result()
	if err != nil {
		return t, err
	}
	t = token.Token{
		ID:        token.ID(id),
		UserID:    input.UserID,
		Code:      input.Code,
		CreatedAt: s.now(),
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(
			ctx,
			s.tokenKey(t.ID),
			"user_id", strconv.FormatInt(int64(t.UserID), 10),
			"code", string(t.Code),
			"completed", "0",
			"completed_at", "",
			"created_at", strconv.FormatInt(t.CreatedAt.UnixNano(), 10),
		)
		pipe.ZAdd(ctx, s.key("ids"), redis.Z{
			Score:  float64(t.CreatedAt.UnixNano()),
			Member: strconv.FormatInt(id, 10),
		})
		return nil
	})
	if err != nil {
		return token.Token{}, err
	}
	return t, nil
}

func (s *RedisTokenStore) GetOne(ctx context.Context, query token.Query) (t token.Token, err error) {
	ids, err := s.client.ZRange(ctx, s.key("ids"), 0, -1).Result()
	if err != nil {
		return t, err
	}
	for _, id := range ids {
		t, ok, err := s.getByRawID(ctx, id)
		if err != nil {
			return t, err
		}
		if ok && query.Matches(t) {
			return t, nil
		}
	}
	return t, token.ErrTokenDoesNotExist
}

func (s *RedisTokenStore) MarkCompleted(ctx context.Context, id token.ID, at time.Time) (bool, error) {
	result, err := markCompleted.Run(
		ctx,
		s.client,
		[]string{s.tokenKey(id)},
		strconv.FormatInt(at.UnixNano(), 10),
	).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, id token.ID) (bool, error) {
	deleted, err := s.client.Del(ctx, s.tokenKey(id)).Result()
	if err != nil {
		return false, err
	}
	_, err = s.client.ZRem(ctx, s.key("ids"), strconv.FormatInt(int64(id), 10)).Result()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

func (s *RedisTokenStore) DeleteMany(ctx context.Context, query token.Query) (int64, error) {
	ids, err := s.client.ZRange(ctx, s.key("ids"), 0, -1).Result()
	if err != nil {
		return 0, err
	}
	deleted := int64(0)
	for _, id := range ids {
		t, ok, err := s.getByRawID(ctx, id)
		if err != nil {
			return deleted, err
		}
		if !ok || !query.Matches(t) {
			continue
		}
		wasDeleted, err := s.Delete(ctx, t.ID)
		if err != nil {
			return deleted, err
		}
		if wasDeleted {
			deleted++
		}
	}
	return deleted, nil
}

func (s *RedisTokenStore) getByRawID(ctx context.Context, rawID string) (t token.Token, ok bool, err error) {
	fields, err := s.client.HGetAll(ctx, s.key("token", rawID)).Result()
	if err != nil {
		return t, false, err
	}
	if len(fields) == 0 {
		// Deleted concurrently, the index entry is stale.
		return t, false, nil
	}
	t, err = decodeToken(rawID, fields)
	if err != nil {
		return t, false, err
	}
	return t, true, nil
}

func (s *RedisTokenStore) key(parts ...string) string {
	key := s.prefix
	for _, part := range parts {
		key += "::" + part
	}
	return key
}

func (s *RedisTokenStore) tokenKey(id token.ID) string {
	return s.key("token", strconv.FormatInt(int64(id), 10))
}

func decodeToken(rawID string, fields map[string]string) (t token.Token, err error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return t, fmt.Errorf("invalid token id %q: %w", rawID, err)
	}
	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return t, fmt.Errorf("invalid user id for token %s: %w", rawID, err)
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return t, fmt.Errorf("invalid created_at for token %s: %w", rawID, err)
	}
	t = token.Token{
		ID:        token.ID(id),
		UserID:    user.ID(userID),
		Code:      token.Code(fields["code"]),
		Completed: fields["completed"] == "1",
		CreatedAt: time.Unix(0, createdAt).UTC(),
	}
	if rawCompletedAt := fields["completed_at"]; rawCompletedAt != "" {
		completedAt, err := strconv.ParseInt(rawCompletedAt, 10, 64)
		if err != nil {
			return t, fmt.Errorf("invalid completed_at for token %s: %w", rawID, err)
		}
		t.CompletedAt = c.NewOptional(time.Unix(0, completedAt).UTC(), true)
	}
	return t, nil
}
