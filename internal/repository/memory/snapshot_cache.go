package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"ai-companion-be/pkg/relmem"
)

type SnapshotCache struct {
	cache *cache.Cache
}

func NewSnapshotCache() *SnapshotCache {
	// Snapshots go stale fast; an hour is plenty for degraded-mode reads
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SnapshotCache{
		cache: c,
	}
}

func (r *SnapshotCache) Put(snapshot relmem.Snapshot) {
	r.cache.Set(snapshot.RelationshipId.String(), snapshot, cache.DefaultExpiration)
}

func (r *SnapshotCache) Get(relationshipId uuid.UUID) (relmem.Snapshot, bool) {
	if x, found := r.cache.Get(relationshipId.String()); found {
		return x.(relmem.Snapshot), true
	}
	return relmem.Snapshot{}, false
}

func (r *SnapshotCache) Delete(relationshipId uuid.UUID) {
	r.cache.Delete(relationshipId.String())
}
