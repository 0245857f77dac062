package relmem

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RankWeights balances recency decay, salience and topic overlap when
// retrieving prior context entries.
type RankWeights struct {
	Recency  float64
	Salience float64
	Overlap  float64
}

func (w RankWeights) orDefaults() RankWeights {
	if w.Recency == 0 && w.Salience == 0 && w.Overlap == 0 {
		return RankWeights{Recency: 0.5, Salience: 0.3, Overlap: 0.2}
	}
	return w
}

// scoreEpsilon treats combined scores this close as equal, so the tie-break
// (most recent first) is stable across float noise.
const scoreEpsilon = 1e-9

// rank merges stored entries with external candidates, deduplicates by id,
// and returns the top-K entries by combined recency+salience+overlap score,
// descending. Ties break toward the more recent entry.
func (s *Store) rank(entries, extra []ContextEntry, queryTags []string, now time.Time) []ContextEntry {
	merged := make([]ContextEntry, 0, len(entries)+len(extra))
	seen := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		merged = append(merged, e)
		seen[e.Id] = struct{}{}
	}
	for _, e := range extra {
		if _, dup := seen[e.Id]; dup {
			continue
		}
		merged = append(merged, e)
	}
	if len(merged) == 0 {
		return nil
	}

	scores := make(map[uuid.UUID]float64, len(merged))
	for _, e := range merged {
		scores[e.Id] = s.weights.Recency*s.decay(e.Timestamp, now) +
			s.weights.Salience*e.Salience +
			s.weights.Overlap*jaccard(e.Tags, queryTags)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		si, sj := scores[merged[i].Id], scores[merged[j].Id]
		if math.Abs(si-sj) > scoreEpsilon {
			return si > sj
		}
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > s.topK {
		merged = merged[:s.topK]
	}
	return merged
}

// jaccard measures topic overlap between two tag sets, case-sensitive.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}
	intersection := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, tag := range b {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := set[tag]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
