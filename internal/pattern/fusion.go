// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// arcNamespace seeds content-derived arc and chapter ids (UUIDv5).
// DETERMINISM: ids depend only on arc type and membership, never on
// randomness or wall-clock time.
var arcNamespace = uuid.MustParse("6f1c24c8-2c52-4ac1-9715-6ab21d9f64b1")

// FusionInput bundles the signals consumed by BuildStoryArcs. Photos is
// the full snapshot; the cluster, burst, and visual-group slices come
// from ClusterLocations, DetectBursts, and the external visual
// similarity model respectively.
type FusionInput struct {
	Photos       []Photo
	GeoClusters  []GeoCluster
	Bursts       []TemporalBurst
	VisualGroups []VisualGroup
}

// BuildStoryArcs fuses geographic, temporal, and visual candidate
// groups into finalized story arcs:
//
//  1. Each cluster, burst, and visual group becomes a raw Pattern with
//     a type-specific confidence in [0,1], monotonic in tightness.
//  2. Patterns under cfg.MinPhotosPerArc are discarded.
//  3. Patterns sharing more than half of the smaller one's members are
//     merged (union membership, joined type label, max confidence),
//     transitively via union-find, repeated until no overlap above the
//     threshold survives.
//  4. Survivors are promoted to StoryArcs: photo ids ordered by capture
//     time, signal summary from Summarize, a heuristic kind and
//     placeholder title, and a content-derived id.
//
// Photo conflicts between arcs landing in the same chapter are resolved
// later by ResolveArcConflicts during chapter assembly.
func BuildStoryArcs(in FusionInput, cfg Config) ([]StoryArc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	index, err := IndexPhotos(in.Photos)
	if err != nil {
		return nil, err
	}

	patterns := rawPatterns(in, cfg)

	kept := patterns[:0]
	for _, p := range patterns {
		if len(p.PhotoIDs) >= cfg.MinPhotosPerArc {
			kept = append(kept, p)
		}
	}
	patterns = kept

	patterns = mergeOverlapping(patterns)

	arcs := make([]StoryArc, 0, len(patterns))
	for _, p := range patterns {
		arcs = append(arcs, promote(p, index))
	}
	return arcs, nil
}

// rawPatterns converts every candidate group into a scored Pattern.
// Creation order (temporal, then spatial, then visual, each in input
// order) is the deterministic tie break carried through the rest of the
// pipeline.
func rawPatterns(in FusionInput, cfg Config) []Pattern {
	var patterns []Pattern
	seq := 0

	for _, b := range in.Bursts {
		start, end := b.Start, b.End
		span := end.Sub(start)
		patterns = append(patterns, Pattern{
			Type:        PatternTemporal,
			Description: fmt.Sprintf("%d photos within %.0f days", len(b.PhotoIDs), span.Hours()/24+1),
			PhotoIDs:    uniqueIDs(b.PhotoIDs),
			Confidence:  temporalConfidence(len(b.PhotoIDs), span),
			Metadata: PatternMetadata{
				Start:    &start,
				End:      &end,
				SpanDays: span.Hours() / 24,
			},
			seq: seq,
		})
		seq++
	}

	for _, c := range in.GeoClusters {
		centroid := c.Centroid
		patterns = append(patterns, Pattern{
			Type:        PatternSpatial,
			Description: fmt.Sprintf("%d photos within %.2f km", len(c.PhotoIDs), c.RadiusKM),
			PhotoIDs:    uniqueIDs(c.PhotoIDs),
			Confidence:  spatialConfidence(cfg.EpsKM, c.RadiusKM, len(c.PhotoIDs), cfg.MinSamples),
			Metadata: PatternMetadata{
				Centroid: &centroid,
				RadiusKM: c.RadiusKM,
			},
			seq: seq,
		})
		seq++
	}

	for _, g := range in.VisualGroups {
		desc := "visually similar photos"
		if g.Label != "" {
			desc = fmt.Sprintf("visually similar photos: %s", g.Label)
		}
		patterns = append(patterns, Pattern{
			Type:        PatternVisual,
			Description: desc,
			PhotoIDs:    uniqueIDs(g.PhotoIDs),
			Confidence:  clamp01(g.Confidence),
			seq:         seq,
		})
		seq++
	}

	return patterns
}

// temporalConfidence rewards dense bursts: more photos over a shorter
// span score higher. n/(n+spanDays) is 1 for a single-moment burst and
// falls monotonically as the span stretches.
func temporalConfidence(n int, span time.Duration) float64 {
	spanDays := span.Hours() / 24
	return clamp01(float64(n) / (float64(n) + spanDays))
}

// spatialConfidence rewards tight clusters with a comfortable density
// margin: eps/(eps+radius) is 1 for a zero-radius cluster and falls as
// the cluster spreads; the margin term saturates at twice min_samples.
func spatialConfidence(epsKM, radiusKM float64, n, minSamples int) float64 {
	tightness := epsKM / (epsKM + radiusKM)
	margin := float64(n) / float64(2*minSamples)
	if margin > 1 {
		margin = 1
	}
	return clamp01(tightness * margin)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// uniqueIDs drops duplicate ids, keeping first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// overlapsAboveThreshold reports whether two patterns share more than
// 50% of the smaller one's members.
func overlapsAboveThreshold(a, b Pattern) bool {
	smaller, larger := a.PhotoIDs, b.PhotoIDs
	if len(larger) < len(smaller) {
		smaller, larger = larger, smaller
	}
	if len(smaller) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(larger))
	for _, id := range larger {
		set[id] = struct{}{}
	}
	shared := 0
	for _, id := range smaller {
		if _, ok := set[id]; ok {
			shared++
		}
	}
	return shared*2 > len(smaller)
}

// mergeOverlapping applies union-find merging until no two surviving
// patterns overlap above the threshold. Merged unions can create fresh
// overlaps, hence the outer loop.
func mergeOverlapping(patterns []Pattern) []Pattern {
	for {
		uf := newUnionFind(len(patterns))
		any := false
		for i := 0; i < len(patterns); i++ {
			for j := i + 1; j < len(patterns); j++ {
				if overlapsAboveThreshold(patterns[i], patterns[j]) {
					if uf.union(i, j) {
						any = true
					}
				}
			}
		}
		if !any {
			return patterns
		}

		groups := make(map[int][]int)
		var roots []int
		for i := range patterns {
			r := uf.find(i)
			if _, ok := groups[r]; !ok {
				roots = append(roots, r)
			}
			groups[r] = append(groups[r], i)
		}
		sort.Ints(roots)

		merged := make([]Pattern, 0, len(roots))
		for _, r := range roots {
			merged = append(merged, mergePatterns(patterns, groups[r]))
		}
		patterns = merged
	}
}

// mergePatterns combines the patterns at the given indices: membership
// union, joined type label, maximum confidence, and metadata spanning
// all constituents.
func mergePatterns(patterns []Pattern, indices []int) Pattern {
	if len(indices) == 1 {
		return patterns[indices[0]]
	}

	var ids []string
	types := make(map[PatternType]bool)
	out := Pattern{Confidence: -1, seq: patterns[indices[0]].seq}

	for _, i := range indices {
		p := patterns[i]
		ids = append(ids, p.PhotoIDs...)
		for _, t := range strings.Split(string(p.Type), "+") {
			types[PatternType(t)] = true
		}
		if p.Confidence > out.Confidence {
			out.Confidence = p.Confidence
			out.Description = p.Description
		}
		if p.seq < out.seq {
			out.seq = p.seq
		}
		mergeMetadata(&out.Metadata, p.Metadata)
	}

	out.PhotoIDs = uniqueIDs(ids)
	sort.Strings(out.PhotoIDs)
	out.Type = joinedType(types)
	if out.Metadata.Start != nil && out.Metadata.End != nil {
		out.Metadata.SpanDays = out.Metadata.End.Sub(*out.Metadata.Start).Hours() / 24
	}
	return out
}

// joinedType renders the merged label in fixed temporal, spatial,
// visual order.
func joinedType(types map[PatternType]bool) PatternType {
	var parts []string
	for _, t := range []PatternType{PatternTemporal, PatternSpatial, PatternVisual} {
		if types[t] {
			parts = append(parts, string(t))
		}
	}
	return PatternType(strings.Join(parts, "+"))
}

func mergeMetadata(dst *PatternMetadata, src PatternMetadata) {
	if src.Start != nil && (dst.Start == nil || src.Start.Before(*dst.Start)) {
		dst.Start = src.Start
	}
	if src.End != nil && (dst.End == nil || src.End.After(*dst.End)) {
		dst.End = src.End
	}
	if src.Centroid != nil && (dst.Centroid == nil || src.RadiusKM < dst.RadiusKM) {
		dst.Centroid = src.Centroid
		dst.RadiusKM = src.RadiusKM
	}
}

// promote turns a surviving pattern into a StoryArc: capture-time
// ordered membership, aggregated summary, heuristic kind and
// placeholder texts, and a content-derived id.
func promote(p Pattern, index PhotoIndex) StoryArc {
	ids := orderByCapture(p.PhotoIDs, index)
	summary := Summarize(ids, index)
	start, end := timeBounds(ids, index)

	spanDays := 0.0
	if start != nil && end != nil {
		spanDays = end.Sub(*start).Hours() / 24
	}
	kind, title, description := classifyArc(summary, spanDays, start)

	return StoryArc{
		ID:          arcID(p.Type, ids),
		Title:       title,
		Description: description,
		Type:        p.Type,
		Kind:        kind,
		PhotoIDs:    ids,
		Summary:     summary,
		Confidence:  p.Confidence,
		Start:       start,
		End:         end,
		seq:         p.seq,
	}
}

// arcID derives a stable UUIDv5 from the arc type and membership.
func arcID(t PatternType, ids []string) string {
	return uuid.NewSHA1(arcNamespace, []byte(string(t)+"|"+strings.Join(ids, ","))).String()
}

// orderByCapture sorts photo ids by (capture time, id); photos without
// timestamps sort last by id.
func orderByCapture(ids []string, index PhotoIndex) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := index[out[i]], index[out[j]]
		ti := captureOf(pi)
		tj := captureOf(pj)
		switch {
		case ti == nil && tj == nil:
			return out[i] < out[j]
		case ti == nil:
			return false
		case tj == nil:
			return true
		case !ti.Equal(*tj):
			return ti.Before(*tj)
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func captureOf(p *Photo) *time.Time {
	if p == nil {
		return nil
	}
	return p.CapturedAt
}

func timeBounds(ids []string, index PhotoIndex) (*time.Time, *time.Time) {
	var start, end *time.Time
	for _, id := range ids {
		t := captureOf(index[id])
		if t == nil {
			continue
		}
		if start == nil || t.Before(*start) {
			tt := *t
			start = &tt
		}
		if end == nil || t.After(*end) {
			tt := *t
			end = &tt
		}
	}
	return start, end
}

// ResolveArcConflicts enforces the per-chapter invariant that no photo
// belongs to more than one arc. Arcs are ranked by confidence, then
// photo count, then creation order; lower-ranked arcs lose contested
// photos, and arcs falling under minPhotos afterwards are discarded.
// Survivors get their membership-derived fields (id, summary, bounds)
// recomputed so the recorded summary always matches a fresh Summarize
// over the final membership.
func ResolveArcConflicts(arcs []StoryArc, index PhotoIndex, minPhotos int) []StoryArc {
	ranked := make([]StoryArc, len(arcs))
	copy(ranked, arcs)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		if len(ranked[i].PhotoIDs) != len(ranked[j].PhotoIDs) {
			return len(ranked[i].PhotoIDs) > len(ranked[j].PhotoIDs)
		}
		return ranked[i].seq < ranked[j].seq
	})

	claimed := make(map[string]struct{})
	var out []StoryArc
	for _, arc := range ranked {
		var keep []string
		for _, id := range arc.PhotoIDs {
			if _, taken := claimed[id]; taken {
				continue
			}
			keep = append(keep, id)
		}
		if len(keep) < minPhotos {
			continue
		}
		for _, id := range keep {
			claimed[id] = struct{}{}
		}
		if len(keep) != len(arc.PhotoIDs) {
			arc.PhotoIDs = keep
			arc.Summary = Summarize(keep, index)
			arc.Start, arc.End = timeBounds(keep, index)
			arc.ID = arcID(arc.Type, keep)
		}
		out = append(out, arc)
	}

	// Present survivors chronologically.
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Start, out[j].Start
		switch {
		case si == nil && sj == nil:
			return out[i].seq < out[j].seq
		case si == nil:
			return false
		case sj == nil:
			return true
		case !si.Equal(*sj):
			return si.Before(*sj)
		default:
			return out[i].seq < out[j].seq
		}
	})
	return out
}

// classifyArc maps the aggregated signals onto a story-arc kind with
// placeholder title and description, later replaced by the narrative
// generator. Rules follow the category/emotion heuristics of the
// original detector, most specific first.
func classifyArc(s Summary, spanDays float64, start *time.Time) (kind, title, description string) {
	cat := strings.ToLower(s.DominantCategory)
	emo := strings.ToLower(s.DominantEmotion)

	month := ""
	if start != nil {
		month = start.Month().String()
	}

	switch {
	case containsAny(cat, "beach", "ocean", "vacation", "travel", "tropical"):
		if spanDays >= 3 {
			return "trip", "Beach Vacation", "Sun, sand, and unforgettable memories by the ocean."
		}
		return "moments", "Beach Day", "A perfect day by the water."
	case containsAny(cat, "wedding", "bride", "ceremony"):
		return "celebration", "Wedding Celebration", "A beautiful celebration of love and commitment."
	case containsAny(cat, "celebration", "party") && containsAny(emo, "happiness", "happy", "joy"):
		return "celebration", "Celebration", "Joyful moments celebrating together."
	case containsAny(cat, "family", "gathering") && containsAny(emo, "happiness", "love", "joy"):
		return "gathering", "Time with Loved Ones", "Cherished moments with family and friends."
	case containsAny(cat, "outdoor", "nature", "hiking", "camping", "mountain"):
		return "adventure", "Outdoor Adventure", "Exploring nature and making memories."
	case containsAny(cat, "holiday", "christmas", "festive"):
		return "holiday", "Holiday Celebration", "Festive moments filled with joy and warmth."
	case containsAny(cat, "food", "restaurant", "dining"):
		return "dining", "Food & Dining", "Delicious meals and culinary experiences."
	case containsAny(cat, "pets", "dog", "cat", "animal"):
		return "pets", "Pet Moments", "Special times with furry friends."
	case containsAny(cat, "sports", "activity", "game"):
		return "activity", "Sports & Activities", "Active moments filled with energy."
	case spanDays >= 3 && month != "":
		return "trip", month + " Trip", fmt.Sprintf("A %.0f-day journey filled with new experiences.", spanDays)
	case month != "":
		return "moments", month + " Moments", "A collection of meaningful moments from this time."
	default:
		return "moments", "Moments", "A collection of meaningful moments."
	}
}

func containsAny(s string, words ...string) bool {
	if s == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
