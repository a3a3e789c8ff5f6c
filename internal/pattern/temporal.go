// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

import (
	"fmt"
	"sort"
	"time"
)

// DetectBursts partitions timestamped photos into contiguous bursts. A
// new burst starts exactly where the gap to the previous timestamp
// exceeds maxGap, so bursts are disjoint and cover every input id.
//
// Bursts of size 1 are returned; filtering them is a policy decision
// that belongs to pattern fusion, not this detector.
//
// DETERMINISM: input is stable-sorted by (timestamp, id), so repeated
// runs over the same input yield identical bursts.
func DetectBursts(stamps []PhotoTime, maxGap time.Duration) ([]TemporalBurst, error) {
	if maxGap <= 0 {
		return nil, fmt.Errorf("%w: max_gap must be positive, got %v", ErrConfiguration, maxGap)
	}
	if len(stamps) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(stamps))
	for _, s := range stamps {
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate photo id %q", ErrInvalidInput, s.ID)
		}
		seen[s.ID] = struct{}{}
	}

	ordered := make([]PhotoTime, len(stamps))
	copy(ordered, stamps)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].At.Equal(ordered[j].At) {
			return ordered[i].At.Before(ordered[j].At)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var bursts []TemporalBurst
	current := TemporalBurst{
		PhotoIDs: []string{ordered[0].ID},
		Start:    ordered[0].At,
		End:      ordered[0].At,
	}

	for i := 1; i < len(ordered); i++ {
		if ordered[i].At.Sub(ordered[i-1].At) > maxGap {
			bursts = append(bursts, current)
			current = TemporalBurst{
				PhotoIDs: []string{ordered[i].ID},
				Start:    ordered[i].At,
				End:      ordered[i].At,
			}
			continue
		}
		current.PhotoIDs = append(current.PhotoIDs, ordered[i].ID)
		current.End = ordered[i].At
	}
	bursts = append(bursts, current)

	return bursts, nil
}
