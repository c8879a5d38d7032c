// Package userstore persists user records, the email uniqueness index and
// OAuth state nonces.
//
// Two implementations satisfy auth.UserStorage and auth.StateStorage:
// RedisStore for production and MemoryStore for tests and single-process
// development.
//
// # Redis layout
//
//	user:<id>              JSON record, including the password hash
//	email_to_id:<email>    id owning the lowercase email
//	users:all              set of every id, used by the directory
//	oauth_state:<nonce>    provider name, expires after the state TTL
//
// A write touches several keys without a transaction. The SETNX on the email
// index decides which of two racing sign-ups wins; the loser removes its own
// record. Crashes between the steps leave orphans that Reconcile repairs.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := userstore.NewRedisStore(client, userstore.WithLogger(log))
//	svc := auth.NewService(store, store, tokens, providers)
package userstore
