package userstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/userstore"
)

// store is the method set both implementations share.
type store interface {
	auth.UserStorage
	auth.StateStorage
	ListUsers(ctx context.Context) ([]*auth.User, error)
}

func newRedisStore(t *testing.T) (*userstore.RedisStore, *miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return userstore.NewRedisStore(client), mr, client
}

func forEachStore(t *testing.T, fn func(t *testing.T, s store)) {
	t.Helper()
	t.Run("redis", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newRedisStore(t)
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		fn(t, userstore.NewMemoryStore())
	})
}

var created = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func emailUser(email string) *auth.User {
	return &auth.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		DisplayName:  "Someone",
		Provider:     auth.ProviderEmail,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		u := emailUser("ann@example.com")
		u.Bio = "likes tea"
		require.NoError(t, s.CreateUser(ctx, u))

		byID, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u, byID)
		assert.NotSame(t, u, byID)

		byEmail, err := s.GetUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, u.PasswordHash, byEmail.PasswordHash)

		_, err = s.GetUserByID(ctx, "missing")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestStore_DuplicateEmail(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		first := emailUser("dup@example.com")
		require.NoError(t, s.CreateUser(ctx, first))

		second := emailUser("dup@example.com")
		assert.ErrorIs(t, s.CreateUser(ctx, second), auth.ErrEmailAlreadyExists)

		_, err := s.GetUserByID(ctx, second.ID)
		assert.ErrorIs(t, err, auth.ErrUserNotFound, "losing record must be removed")

		owner, err := s.GetUserByEmail(ctx, "dup@example.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, owner.ID)
	})
}

func TestStore_ConcurrentRegistrationHasOneWinner(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		const racers = 16

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins []string
		)
		for range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u := emailUser("race@example.com")
				if err := s.CreateUser(ctx, u); err == nil {
					mu.Lock()
					wins = append(wins, u.ID)
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
				}
			}()
		}
		wg.Wait()

		require.Len(t, wins, 1)
		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, wins[0], users[0].ID)
	})
}

func TestStore_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		noHash := emailUser("a@example.com")
		noHash.PasswordHash = ""
		assert.ErrorIs(t, s.CreateUser(ctx, noHash), userstore.ErrInvalidRecord)

		upper := emailUser("Mixed@Example.com")
		assert.ErrorIs(t, s.CreateUser(ctx, upper), userstore.ErrInvalidRecord)

		oauth := emailUser("b@example.com")
		oauth.Provider = auth.ProviderGitHub
		oauth.PasswordHash = ""
		assert.ErrorIs(t, s.CreateUser(ctx, oauth), userstore.ErrInvalidRecord)

		oauth.OAuthID = "42"
		assert.NoError(t, s.CreateUser(ctx, oauth))

		unknown := emailUser("c@example.com")
		unknown.Provider = "myspace"
		assert.ErrorIs(t, s.CreateUser(ctx, unknown), userstore.ErrInvalidRecord)

		assert.ErrorIs(t, s.CreateUser(ctx, nil), userstore.ErrInvalidRecord)
	})
}

func TestStore_Update(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		u := emailUser("upd@example.com")
		require.NoError(t, s.CreateUser(ctx, u))

		u.Bio = "new bio"
		u.UpdatedAt = created.Add(time.Hour)
		require.NoError(t, s.UpdateUser(ctx, u))

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new bio", got.Bio)
		assert.Equal(t, created.Add(time.Hour), got.UpdatedAt)

		require.NoError(t, s.DeleteUser(ctx, u.ID))
		assert.ErrorIs(t, s.UpdateUser(ctx, u), auth.ErrUserNotFound)
		_, err = s.GetUserByID(ctx, u.ID)
		assert.ErrorIs(t, err, auth.ErrUserNotFound, "update must not resurrect a deleted user")
	})
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		u := emailUser("del@example.com")
		keep := emailUser("keep@example.com")
		require.NoError(t, s.CreateUser(ctx, u))
		require.NoError(t, s.CreateUser(ctx, keep))

		require.NoError(t, s.DeleteUser(ctx, u.ID))
		require.NoError(t, s.DeleteUser(ctx, u.ID), "second delete is a no-op")

		_, err := s.GetUserByEmail(ctx, "del@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, keep.ID, users[0].ID)

		again := emailUser("del@example.com")
		require.NoError(t, s.CreateUser(ctx, again), "email is free after delete")
		assert.NotEqual(t, u.ID, again.ID)
	})
}

func TestStore_ListUsersEmpty(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		users, err := s.ListUsers(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})
}

func TestStore_State(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		require.NoError(t, s.StoreState(ctx, "nonce-1", auth.ProviderGoogle, 10*time.Minute))
		assert.ErrorIs(t, s.StoreState(ctx, "nonce-1", auth.ProviderGitHub, 10*time.Minute), userstore.ErrInvalidState)

		provider, err := s.ConsumeState(ctx, "nonce-1")
		require.NoError(t, err)
		assert.Equal(t, auth.ProviderGoogle, provider)

		_, err = s.ConsumeState(ctx, "nonce-1")
		assert.ErrorIs(t, err, auth.ErrStateNotFound, "state is single use")

		_, err = s.ConsumeState(ctx, "never-issued")
		assert.ErrorIs(t, err, auth.ErrStateNotFound)

		assert.ErrorIs(t, s.StoreState(ctx, "", auth.ProviderGoogle, time.Minute), userstore.ErrInvalidState)
		assert.ErrorIs(t, s.StoreState(ctx, "n", auth.ProviderGoogle, 0), userstore.ErrInvalidState)
	})
}

func TestStore_ConcurrentStateRedeem(t *testing.T) {
	t.Parallel()
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		require.NoError(t, s.StoreState(ctx, "shared", auth.ProviderGitHub, time.Minute))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			redeemed int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.ConsumeState(ctx, "shared"); err == nil {
					mu.Lock()
					redeemed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, redeemed)
	})
}

func TestRedisStore_StateExpires(t *testing.T) {
	t.Parallel()
	s, mr, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.StoreState(ctx, "ttl", auth.ProviderGoogle, 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL("oauth_state:ttl"))

	mr.FastForward(10*time.Minute + time.Second)
	_, err := s.ConsumeState(ctx, "ttl")
	assert.ErrorIs(t, err, auth.ErrStateNotFound)
}

func TestMemoryStore_StateExpires(t *testing.T) {
	t.Parallel()
	now := created
	s := userstore.NewMemoryStore(userstore.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, s.StoreState(ctx, "ttl", auth.ProviderGoogle, 10*time.Minute))
	now = now.Add(10 * time.Minute)
	_, err := s.ConsumeState(ctx, "ttl")
	assert.ErrorIs(t, err, auth.ErrStateNotFound)
}

func TestRedisStore_Layout(t *testing.T) {
	t.Parallel()
	s, mr, _ := newRedisStore(t)
	ctx := context.Background()

	u := emailUser("layout@example.com")
	require.NoError(t, s.CreateUser(ctx, u))

	id, err := mr.Get("email_to_id:layout@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	members, err := mr.Members("users:all")
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, members)

	raw, err := mr.Get("user:" + u.ID)
	require.NoError(t, err)
	assert.Contains(t, raw, `"password_hash":"$2a$10$abcdefghijklmnopqrstuv"`)
	assert.Contains(t, raw, `"provider":"email"`)
}

func TestRedisStore_DeleteKeepsForeignIndex(t *testing.T) {
	t.Parallel()
	s, mr, _ := newRedisStore(t)
	ctx := context.Background()

	u := emailUser("shared@example.com")
	require.NoError(t, s.CreateUser(ctx, u))
	// Simulate the index having moved to another account.
	require.NoError(t, mr.Set("email_to_id:shared@example.com", "someone-else"))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	id, err := mr.Get("email_to_id:shared@example.com")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", id)
	assert.False(t, mr.Exists("user:"+u.ID))
}

func TestRedisStore_DanglingIndexReadsAsNotFound(t *testing.T) {
	t.Parallel()
	s, mr, _ := newRedisStore(t)
	require.NoError(t, mr.Set("email_to_id:ghost@example.com", "gone"))

	_, err := s.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	t.Parallel()
	s, mr, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("user:bad", "{not json"))
	mr.SAdd("users:all", "bad")

	_, err := s.GetUserByID(ctx, "bad")
	assert.ErrorIs(t, err, userstore.ErrCorruptRecord)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, s.DeleteUser(ctx, "bad"))
	assert.False(t, mr.Exists("user:bad"))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	t.Parallel()
	s, mr, _ := newRedisStore(t)
	mr.Close()

	_, err := s.GetUserByID(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUserNotFound)
}

func ExampleNewMemoryStore() {
	s := userstore.NewMemoryStore()
	ctx := context.Background()

	_ = s.StoreState(ctx, "nonce", auth.ProviderGitHub, time.Minute)
	provider, _ := s.ConsumeState(ctx, "nonce")
	_, err := s.ConsumeState(ctx, "nonce")

	fmt.Println(provider, err)
	// Output: github OAuth state not found or expired
}
