package implementation

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ai-companion-be/pkg/relmem"
)

const (
	snapshotKeyPrefix = "companion:snapshot:"
	snapshotTTL       = 24 * time.Hour
)

// RedisSnapshotRepository keeps last known-good snapshots in Redis so
// degraded-mode reads survive process restarts.
type RedisSnapshotRepository struct {
	rdb *redis.Client
}

func NewRedisSnapshotRepository(rdb *redis.Client) *RedisSnapshotRepository {
	return &RedisSnapshotRepository{
		rdb: rdb,
	}
}

func (r *RedisSnapshotRepository) Put(snapshot relmem.Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("[WARN] Failed to marshal snapshot for %s: %v", snapshot.RelationshipId, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.rdb.Set(ctx, snapshotKeyPrefix+snapshot.RelationshipId.String(), payload, snapshotTTL).Err(); err != nil {
		log.Printf("[WARN] Failed to store snapshot for %s: %v", snapshot.RelationshipId, err)
	}
}

func (r *RedisSnapshotRepository) Get(relationshipId uuid.UUID) (relmem.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, err := r.rdb.Get(ctx, snapshotKeyPrefix+relationshipId.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[WARN] Failed to read snapshot for %s: %v", relationshipId, err)
		}
		return relmem.Snapshot{}, false
	}

	var snapshot relmem.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		log.Printf("[WARN] Failed to unmarshal snapshot for %s: %v", relationshipId, err)
		return relmem.Snapshot{}, false
	}
	return snapshot, true
}
