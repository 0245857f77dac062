package memory

import (
	"testing"

	"github.com/google/uuid"

	"ai-companion-be/pkg/relmem"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	c := NewSnapshotCache()
	relId := uuid.New()

	if _, found := c.Get(relId); found {
		t.Fatal("empty cache reported a hit")
	}

	snap := relmem.Snapshot{RelationshipId: relId, Trust: 0.62, Version: 3}
	c.Put(snap)

	got, found := c.Get(relId)
	if !found {
		t.Fatal("cached snapshot not found")
	}
	if got.Version != 3 || got.Trust != 0.62 {
		t.Errorf("got %+v, want %+v", got, snap)
	}

	c.Delete(relId)
	if _, found := c.Get(relId); found {
		t.Error("snapshot survived delete")
	}
}
