package userstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/logger"
)

// deleteIfOwner removes the email index entry only while it still points at
// the expected id, so a delete never drops an index claimed by a newer account.
var deleteIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var (
	_ auth.UserStorage  = (*RedisStore)(nil)
	_ auth.StateStorage = (*RedisStore)(nil)
)

// RedisStore implements auth.UserStorage and auth.StateStorage on Redis.
type RedisStore struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	o := options{logger: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore{
		client: client,
		logger: o.logger.With(logger.Component("userstore")),
	}
}

// CreateUser writes the record, claims the email and adds the id to the
// directory. Losing the email claim removes the record again and returns
// auth.ErrEmailAlreadyExists.
func (s *RedisStore) CreateUser(ctx context.Context, user *auth.User) error {
	data, err := encodeRecord(user)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, userKey(user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("write user record: %w", err)
	}

	claimed, err := s.client.SetNX(ctx, emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		s.dropRecord(ctx, user.ID)
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		s.dropRecord(ctx, user.ID)
		return auth.ErrEmailAlreadyExists
	}

	if err := s.client.SAdd(ctx, directoryKey, user.ID).Err(); err != nil {
		// The account exists and is reachable by email; Reconcile restores
		// directory membership.
		s.logger.WarnContext(ctx, "failed to add user to directory",
			logger.UserID(user.ID), logger.Error(err))
	}
	return nil
}

func (s *RedisStore) dropRecord(ctx context.Context, id string) {
	if err := s.client.Del(ctx, userKey(id)).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to remove unclaimed user record",
			logger.UserID(id), logger.Error(err))
	}
}

func (s *RedisStore) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	r, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.user(), nil
}

func (s *RedisStore) getRecord(ctx context.Context, id string) (record, error) {
	if id == "" {
		return record{}, auth.ErrUserNotFound
	}
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return record{}, auth.ErrUserNotFound
	}
	if err != nil {
		return record{}, fmt.Errorf("read user record: %w", err)
	}
	return decodeRecord(data)
}

// GetUserByEmail resolves the index, then the record. An index entry whose
// record is gone reads as auth.ErrUserNotFound.
func (s *RedisStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	id, err := s.client.Get(ctx, emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read email index: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// UpdateUser overwrites an existing record. It never recreates a deleted
// one and leaves the email index untouched.
func (s *RedisStore) UpdateUser(ctx context.Context, user *auth.User) error {
	data, err := encodeRecord(user)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, userKey(user.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update user record: %w", err)
	}
	if !ok {
		return auth.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the directory entry, the email index (if still owned)
// and the record, in that order. Deleting a missing id is a no-op.
func (s *RedisStore) DeleteUser(ctx context.Context, id string) error {
	r, err := s.getRecord(ctx, id)
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, ErrCorruptRecord) {
		return err
	}

	if err := s.client.SRem(ctx, directoryKey, id).Err(); err != nil {
		return fmt.Errorf("remove from directory: %w", err)
	}
	if r.Email != "" {
		if err := deleteIfOwner.Run(ctx, s.client, []string{emailKey(r.Email)}, id).Err(); err != nil {
			return fmt.Errorf("release email: %w", err)
		}
	}
	if err := s.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("delete user record: %w", err)
	}
	return nil
}

// ListUsers returns every user in the directory. Ids whose record has
// disappeared or cannot be decoded are skipped.
func (s *RedisStore) ListUsers(ctx context.Context) ([]*auth.User, error) {
	ids, err := s.client.SMembers(ctx, directoryKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	if len(ids) == 0 {
		return []*auth.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read user records: %w", err)
	}

	users := make([]*auth.User, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		r, err := decodeRecord([]byte(raw))
		if err != nil {
			s.logger.WarnContext(ctx, "skipping undecodable user record",
				logger.UserID(ids[i]), logger.Error(err))
			continue
		}
		users = append(users, r.user())
	}
	return users, nil
}

// StoreState saves nonce → provider with a TTL. Reusing a live nonce fails.
func (s *RedisStore) StoreState(ctx context.Context, state, provider string, ttl time.Duration) error {
	if state == "" || provider == "" || ttl <= 0 {
		return ErrInvalidState
	}
	ok, err := s.client.SetNX(ctx, stateKey(state), provider, ttl).Result()
	if err != nil {
		return fmt.Errorf("store oauth state: %w", err)
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

// ConsumeState atomically reads and deletes a nonce.
func (s *RedisStore) ConsumeState(ctx context.Context, state string) (string, error) {
	provider, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return "", auth.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	return provider, nil
}
