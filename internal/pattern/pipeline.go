// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

import "time"

// Result is the complete output of one pipeline run.
type Result struct {
	Geo      *GeoClusterResult `json:"geo"`
	Bursts   []TemporalBurst   `json:"bursts"`
	Arcs     []StoryArc        `json:"arcs"`
	Chapters []Chapter         `json:"chapters"`
}

// Run executes the full pipeline over one consistent photo snapshot:
// spatial clustering and burst detection over the same photo set,
// fusion into story arcs, and chapter assembly. Visual similarity
// groups come from the external model and may be nil.
//
// Run is pure and safe to abandon mid-computation; the caller owns
// cancellation and concurrency policy (at most one concurrent run per
// collection, since runs over a mutating snapshot would diverge).
func Run(photos []Photo, visualGroups []VisualGroup, birthDate *time.Time, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := IndexPhotos(photos); err != nil {
		return nil, err
	}

	var points []GeoPoint
	var stamps []PhotoTime
	for i := range photos {
		p := &photos[i]
		if p.Location != nil {
			points = append(points, GeoPoint{ID: p.ID, Latitude: p.Location.Latitude, Longitude: p.Location.Longitude})
		}
		if p.CapturedAt != nil {
			stamps = append(stamps, PhotoTime{ID: p.ID, At: *p.CapturedAt})
		}
	}

	geo, err := ClusterLocations(points, cfg.EpsKM, cfg.MinSamples)
	if err != nil {
		return nil, err
	}
	bursts, err := DetectBursts(stamps, cfg.MaxGap)
	if err != nil {
		return nil, err
	}

	arcs, err := BuildStoryArcs(FusionInput{
		Photos:       photos,
		GeoClusters:  geo.Clusters,
		Bursts:       bursts,
		VisualGroups: visualGroups,
	}, cfg)
	if err != nil {
		return nil, err
	}

	chapters, err := AssembleChapters(arcs, photos, birthDate, cfg)
	if err != nil {
		return nil, err
	}

	return &Result{
		Geo:      geo,
		Bursts:   bursts,
		Arcs:     arcs,
		Chapters: chapters,
	}, nil
}
