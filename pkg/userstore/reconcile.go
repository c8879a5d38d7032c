package userstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/logger"
)

const scanBatch = 200

// ReconcileReport counts the repairs made by a Reconcile run.
type ReconcileReport struct {
	DanglingIndexes int `json:"dangling_indexes"`
	StaleMembers    int `json:"stale_members"`
	OrphanRecords   int `json:"orphan_records"`
	MissingMembers  int `json:"missing_members"`
}

// Total returns the number of keys repaired.
func (r ReconcileReport) Total() int {
	return r.DanglingIndexes + r.StaleMembers + r.OrphanRecords + r.MissingMembers
}

func (r ReconcileReport) attrs() slog.Attr {
	return logger.Group("repaired",
		slog.Int("dangling_indexes", r.DanglingIndexes),
		slog.Int("stale_members", r.StaleMembers),
		slog.Int("orphan_records", r.OrphanRecords),
		slog.Int("missing_members", r.MissingMembers),
	)
}

// suspects collects keys that look inconsistent on the first pass.
type suspects struct {
	indexes map[string]string // email -> id
	members []string
	orphans []string
	missing []string
}

// Reconcile repairs the partial writes that multi-key updates can leave
// behind:
//   - index entries whose record is gone or carries another email
//   - directory ids without a record
//   - records their email index does not point at
//   - indexed records missing from the directory
//
// Candidates are collected, then re-checked after grace so writes in flight
// during the first pass are left alone.
func (s *RedisStore) Reconcile(ctx context.Context, grace time.Duration) (ReconcileReport, error) {
	found, err := s.collectSuspects(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	if len(found.indexes)+len(found.members)+len(found.orphans)+len(found.missing) == 0 {
		return ReconcileReport{}, nil
	}

	if grace > 0 {
		timer := time.NewTimer(grace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ReconcileReport{}, ctx.Err()
		case <-timer.C:
		}
	}

	report, err := s.repair(ctx, found)
	if report.Total() > 0 {
		s.logger.InfoContext(ctx, "user store reconciled", logger.Event("reconcile"), report.attrs())
	}
	return report, err
}

func (s *RedisStore) collectSuspects(ctx context.Context) (suspects, error) {
	found := suspects{indexes: map[string]string{}}

	err := s.scan(ctx, emailKeyPrefix+"*", func(key string) error {
		email := strings.TrimPrefix(key, emailKeyPrefix)
		id, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if !s.indexHolds(ctx, email, id) {
			found.indexes[email] = id
		}
		return nil
	})
	if err != nil {
		return found, fmt.Errorf("scan email index: %w", err)
	}

	members, err := s.client.SMembers(ctx, directoryKey).Result()
	if err != nil {
		return found, fmt.Errorf("read directory: %w", err)
	}
	inDirectory := make(map[string]bool, len(members))
	for _, id := range members {
		inDirectory[id] = true
		n, err := s.client.Exists(ctx, userKey(id)).Result()
		if err != nil {
			return found, fmt.Errorf("check directory member: %w", err)
		}
		if n == 0 {
			found.members = append(found.members, id)
		}
	}

	err = s.scan(ctx, userKeyPrefix+"*", func(key string) error {
		id := strings.TrimPrefix(key, userKeyPrefix)
		r, err := s.getRecord(ctx, id)
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil
		}
		if errors.Is(err, ErrCorruptRecord) {
			s.logger.WarnContext(ctx, "undecodable user record left in place", logger.UserID(id))
			return nil
		}
		if err != nil {
			return err
		}
		owner, err := s.client.Get(ctx, emailKey(r.Email)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		switch {
		case owner != id:
			found.orphans = append(found.orphans, id)
		case !inDirectory[id]:
			found.missing = append(found.missing, id)
		}
		return nil
	})
	if err != nil {
		return found, fmt.Errorf("scan user records: %w", err)
	}

	return found, nil
}

func (s *RedisStore) repair(ctx context.Context, found suspects) (ReconcileReport, error) {
	var report ReconcileReport

	for email, id := range found.indexes {
		if s.indexHolds(ctx, email, id) {
			continue
		}
		n, err := deleteIfOwner.Run(ctx, s.client, []string{emailKey(email)}, id).Int()
		if err != nil {
			return report, fmt.Errorf("remove dangling index: %w", err)
		}
		report.DanglingIndexes += n
	}

	for _, id := range found.members {
		n, err := s.client.Exists(ctx, userKey(id)).Result()
		if err != nil {
			return report, fmt.Errorf("recheck directory member: %w", err)
		}
		if n > 0 {
			continue
		}
		removed, err := s.client.SRem(ctx, directoryKey, id).Result()
		if err != nil {
			return report, fmt.Errorf("remove stale member: %w", err)
		}
		report.StaleMembers += int(removed)
	}

	for _, id := range found.orphans {
		r, err := s.getRecord(ctx, id)
		if errors.Is(err, auth.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return report, err
		}
		owner, err := s.client.Get(ctx, emailKey(r.Email)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return report, fmt.Errorf("recheck orphan: %w", err)
		}
		if owner == id {
			continue
		}
		if err := s.client.SRem(ctx, directoryKey, id).Err(); err != nil {
			return report, fmt.Errorf("remove orphan from directory: %w", err)
		}
		deleted, err := s.client.Del(ctx, userKey(id)).Result()
		if err != nil {
			return report, fmt.Errorf("delete orphan record: %w", err)
		}
		report.OrphanRecords += int(deleted)
	}

	for _, id := range found.missing {
		r, err := s.getRecord(ctx, id)
		if errors.Is(err, auth.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return report, err
		}
		owner, err := s.client.Get(ctx, emailKey(r.Email)).Result()
		if err != nil || owner != id {
			continue
		}
		added, err := s.client.SAdd(ctx, directoryKey, id).Result()
		if err != nil {
			return report, fmt.Errorf("restore directory member: %w", err)
		}
		report.MissingMembers += int(added)
	}

	return report, nil
}

// indexHolds reports whether email -> id is backed by a record with that
// email. Read errors count as holding so nothing is removed on a flaky read.
func (s *RedisStore) indexHolds(ctx context.Context, email, id string) bool {
	r, err := s.getRecord(ctx, id)
	if errors.Is(err, auth.ErrUserNotFound) {
		return false
	}
	if err != nil {
		return true
	}
	return r.Email == email
}

func (s *RedisStore) scan(ctx context.Context, match string, fn func(key string) error) error {
	iter := s.client.Scan(ctx, 0, match, scanBatch).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	return iter.Err()
}
