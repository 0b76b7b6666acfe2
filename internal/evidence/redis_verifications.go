// internal/evidence/redis_verifications.go
package evidence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/metrics"
	"hub-backoffice/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisVerificationStore reads verification evidence from the Redis cache
// the verification service writes to:
//
//	{prefix}:verifications:all          ZSET member=id score=created unix ms
//	{prefix}:verifications:hub:{hubId}  ZSET member=id score=created unix ms
//	{prefix}:verification:{id}          HASH tenant_id hub_id status created_at
type RedisVerificationStore struct {
	client redis.Cmdable
	prefix string
	logger logger.Logger
}

func NewRedisVerificationStore(client redis.Cmdable, prefix string, log logger.Logger) *RedisVerificationStore {
	if prefix == "" {
		prefix = "backoffice"
	}
	return &RedisVerificationStore{
		client: client,
		prefix: prefix,
		logger: log.WithFields(map[string]interface{}{"store": "redis"}),
	}
}

func (s *RedisVerificationStore) indexKey(q Query) string {
	if q.HubID == nil {
		return s.prefix + ":verifications:all"
	}
	return fmt.Sprintf("%s:verifications:hub:%d", s.prefix, *q.HubID)
}

func (s *RedisVerificationStore) recordKey(id string) string {
	return s.prefix + ":verification:" + id
}

func scoreBound(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (s *RedisVerificationStore) ListVerifications(ctx context.Context, q Query) ([]models.Verification, error) {
	max := "+inf"
	if !q.VerificationsUntil.IsZero() {
		// until is exclusive
		max = "(" + strconv.FormatInt(q.VerificationsUntil.UnixMilli(), 10)
	}
	ids, err := s.client.ZRangeByScore(ctx, s.indexKey(q), &redis.ZRangeBy{
		Min: scoreBound(q.VerificationsSince, "-inf"),
		Max: max,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("verification index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.recordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("verification records: %w", err)
	}

	out := make([]models.Verification, 0, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			s.skip(ids[i], "missing record")
			continue
		}
		v, err := decodeVerification(ids[i], fields)
		if err != nil {
			s.skip(ids[i], err.Error())
			continue
		}
		if q.TenantID != "" && v.TenantID != q.TenantID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *RedisVerificationStore) skip(id, reason string) {
	metrics.EvidenceRowsSkipped.WithLabelValues(string(KindVerifications)).Inc()
	s.logger.Warn("skipping undecodable verification", map[string]interface{}{
		"verificationId": id,
		"reason":         reason,
	})
}

func decodeVerification(id string, fields map[string]string) (models.Verification, error) {
	v := models.Verification{
		ID:       id,
		TenantID: fields["tenant_id"],
		Status:   fields["status"],
	}
	hubID, err := strconv.Atoi(fields["hub_id"])
	if err != nil {
		return v, fmt.Errorf("hub_id: %w", err)
	}
	v.HubID = hubID
	created, err := time.Parse(time.RFC3339, fields["created_at"])
	if err != nil {
		return v, fmt.Errorf("created_at: %w", err)
	}
	v.CreatedAt = created
	return v, nil
}

// PutVerification writes one verification record and its index entries.
// Used by seeding tools and tests.
func (s *RedisVerificationStore) PutVerification(ctx context.Context, v models.Verification) error {
	score := float64(v.CreatedAt.UnixMilli())
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.recordKey(v.ID), map[string]interface{}{
		"tenant_id":  v.TenantID,
		"hub_id":     strconv.Itoa(v.HubID),
		"status":     v.Status,
		"created_at": v.CreatedAt.UTC().Format(time.RFC3339),
	})
	pipe.ZAdd(ctx, s.prefix+":verifications:all", redis.Z{Score: score, Member: v.ID})
	pipe.ZAdd(ctx, fmt.Sprintf("%s:verifications:hub:%d", s.prefix, v.HubID), redis.Z{Score: score, Member: v.ID})
	_, err := pipe.Exec(ctx)
	return err
}
