package contract

import (
	"github.com/google/uuid"

	"ai-companion-be/pkg/relmem"
)

// SnapshotRepository holds the last known-good memory snapshot per
// relationship for degraded-mode reads.
type SnapshotRepository interface {
	Get(relationshipId uuid.UUID) (relmem.Snapshot, bool)
	Put(snapshot relmem.Snapshot)
}
