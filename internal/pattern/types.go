// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

import (
	"fmt"
	"time"
)

// NoiseLabel marks a point that DBSCAN could not assign to any cluster.
const NoiseLabel = -1

// Tag is one classification or emotion label with model confidence.
type Tag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate against WGS84 bounds.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidInput, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidInput, c.Longitude)
	}
	return nil
}

// Photo is the immutable input record supplied by the photo store.
// The pipeline only reads photos; it never mutates them. A nil
// CapturedAt excludes the photo from temporal and chapter grouping; a
// nil Location excludes it from spatial clustering.
type Photo struct {
	ID           string      `json:"id"`
	CapturedAt   *time.Time  `json:"captured_at,omitempty"`
	Location     *Coordinate `json:"location,omitempty"`
	CategoryTags []Tag       `json:"category_tags,omitempty"`
	EmotionTags  []Tag       `json:"emotion_tags,omitempty"`
}

// PhotoIndex resolves photo ids to records during aggregation.
type PhotoIndex map[string]*Photo

// IndexPhotos builds a PhotoIndex. It fails if two photos share an id.
func IndexPhotos(photos []Photo) (PhotoIndex, error) {
	index := make(PhotoIndex, len(photos))
	for i := range photos {
		p := &photos[i]
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate photo id %q", ErrInvalidInput, p.ID)
		}
		index[p.ID] = p
	}
	return index, nil
}

// GeoPoint is one geotagged input to the clustering engine. Callers
// must filter out photos without coordinates before clustering.
type GeoPoint struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoCluster is one spatial cluster found by ClusterLocations.
// Every member's Haversine distance to Centroid is at most RadiusKM.
type GeoCluster struct {
	Label    int        `json:"label"`
	PhotoIDs []string   `json:"photo_ids"`
	Centroid Coordinate `json:"centroid"`
	RadiusKM float64    `json:"radius_km"`
}

// GeoClusterResult is the full output of one clustering run. Labels
// maps every input id to its cluster label or NoiseLabel; Noise lists
// the unclustered ids in input order.
type GeoClusterResult struct {
	Labels   map[string]int `json:"labels"`
	Clusters []GeoCluster   `json:"clusters"`
	Noise    []string       `json:"noise"`
}

// PhotoTime is one timestamped input to the burst detector.
type PhotoTime struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

// TemporalBurst is a contiguous run of photos whose consecutive
// capture-time gaps all stay within the configured maximum.
type TemporalBurst struct {
	PhotoIDs []string  `json:"photo_ids"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// TagShare is one tag value with the percentage of photos for which it
// was the top-confidence tag of its kind.
type TagShare struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// Summary is the aggregated signal roll-up for a group of photos.
// Dominant values are empty strings when no photo carries a tag of the
// corresponding kind; the share slices preserve first-seen order.
type Summary struct {
	DominantCategory string     `json:"dominant_category,omitempty"`
	CategoryShares   []TagShare `json:"category_shares,omitempty"`
	DominantEmotion  string     `json:"dominant_emotion,omitempty"`
	EmotionShares    []TagShare `json:"emotion_shares,omitempty"`
	PhotoCount       int        `json:"photo_count"`
}

// PatternType tags the signal a candidate pattern came from. Merged
// patterns carry a joined label such as "temporal+spatial", always in
// temporal, spatial, visual order.
type PatternType string

const (
	PatternTemporal PatternType = "temporal"
	PatternSpatial  PatternType = "spatial"
	PatternVisual   PatternType = "visual"
)

// PatternMetadata carries type-specific detail for a pattern.
type PatternMetadata struct {
	Centroid *Coordinate `json:"centroid,omitempty"`
	RadiusKM float64     `json:"radius_km,omitempty"`
	Start    *time.Time  `json:"start,omitempty"`
	End      *time.Time  `json:"end,omitempty"`
	SpanDays float64     `json:"span_days,omitempty"`
}

// Pattern is a scored candidate grouping of photos sharing one signal
// (or several, after merging). A photo may appear in multiple patterns
// of different types but in at most one finalized story arc per
// chapter.
type Pattern struct {
	Type        PatternType     `json:"type"`
	Description string          `json:"description"`
	PhotoIDs    []string        `json:"photo_ids"`
	Confidence  float64         `json:"confidence"`
	Metadata    PatternMetadata `json:"metadata"`

	// seq is the deterministic creation order used for tie breaks.
	seq int
}

// VisualGroup is an externally supplied visual-similarity grouping
// (e.g. from an embedding model). Confidence must already be in [0,1].
type VisualGroup struct {
	Label      string   `json:"label"`
	PhotoIDs   []string `json:"photo_ids"`
	Confidence float64  `json:"confidence"`
}

// StoryArc is a finalized, deduplicated pattern promoted to
// user-visible status. Title and Description start as placeholders and
// are replaced by the narrative generator after fusion.
type StoryArc struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        PatternType `json:"type"`
	Kind        string      `json:"kind"`
	PhotoIDs    []string    `json:"photo_ids"`
	Summary     Summary     `json:"summary"`
	Confidence  float64     `json:"confidence"`
	Start       *time.Time  `json:"start,omitempty"`
	End         *time.Time  `json:"end,omitempty"`

	// seq preserves pattern creation order through promotion for the
	// conflict-resolution tie break.
	seq int
}

// ChapterKind distinguishes age-bracket chapters from calendar-year
// chapters.
type ChapterKind string

const (
	ChapterAgeBased  ChapterKind = "age_based"
	ChapterYearBased ChapterKind = "year_based"
)

// Chapter is a contiguous, non-overlapping year (or age) range owning
// an ordered list of story arcs. Chapters partition the timestamped
/// photo set: every timestamped photo maps to exactly one chapter.
type Chapter struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Subtitle        string      `json:"subtitle,omitempty"`
	Kind            ChapterKind `json:"kind"`
	AgeStart        *int        `json:"age_start,omitempty"`
	AgeEnd          *int        `json:"age_end,omitempty"`
	YearStart       int         `json:"year_start"`
	YearEnd         int         `json:"year_end"`
	StoryArcs       []StoryArc  `json:"story_arcs"`
	PhotoIDs        []string    `json:"photo_ids"`
	PhotoCount      int         `json:"photo_count"`
	DominantEmotion string      `json:"dominant_emotion,omitempty"`
	Sequence        int         `json:"sequence"`
}

// AgeBracket names one age range for age-based chapters. Brackets must
// be contiguous and non-overlapping.
type AgeBracket struct {
	Start int    `json:"start" koanf:"start"`
	End   int    `json:"end" koanf:"end"`
	Name  string `json:"name" koanf:"name"`
}

// DefaultAgeBrackets is the life-phase table used when no bracket table
// is configured.
func DefaultAgeBrackets() []AgeBracket {
	return []AgeBracket{
		{Start: 0, End: 5, Name: "Early Childhood"},
		{Start: 6, End: 12, Name: "Childhood Wonder"},
		{Start: 13, End: 17, Name: "Teenage Years"},
		{Start: 18, End: 22, Name: "College & Discovery"},
		{Start: 23, End: 28, Name: "Young Adulthood"},
		{Start: 29, End: 35, Name: "Building a Life"},
		{Start: 36, End: 45, Name: "Family & Career"},
		{Start: 46, End: 55, Name: "Prime Years"},
		{Start: 56, End: 65, Name: "Wisdom Years"},
		{Start: 66, End: 120, Name: "Golden Years"},
	}
}

// Config holds the tuning parameters for a full pipeline run.
type Config struct {
	// EpsKM is the DBSCAN neighborhood radius in kilometers.
	EpsKM float64 `json:"eps_km" koanf:"eps_km"`

	// MinSamples is the DBSCAN core-point density threshold, counting
	// the point itself.
	MinSamples int `json:"min_samples" koanf:"min_samples"`

	// MaxGap is the largest capture-time gap allowed inside one burst.
	MaxGap time.Duration `json:"max_gap" koanf:"max_gap"`

	// MinPhotosPerArc discards candidate patterns below this size.
	MinPhotosPerArc int `json:"min_photos_per_arc" koanf:"min_photos_per_arc"`

	// AgeBrackets configures age-based chapter ranges.
	AgeBrackets []AgeBracket `json:"age_brackets" koanf:"age_brackets"`

	// YearBucketSize groups this many consecutive calendar years into
	// one chapter when no birth date is available. 1 means one chapter
	// per year.
	YearBucketSize int `json:"year_bucket_size" koanf:"year_bucket_size"`
}

// DefaultConfig returns the documented pipeline defaults.
func DefaultConfig() Config {
	return Config{
		EpsKM:           0.5,
		MinSamples:      5,
		MaxGap:          30 * 24 * time.Hour,
		MinPhotosPerArc: 3,
		AgeBrackets:     DefaultAgeBrackets(),
		YearBucketSize:  1,
	}
}

// Validate checks the configuration, returning ErrConfiguration
// wrappers for every violation found first.
func (c Config) Validate() error {
	if c.EpsKM <= 0 {
		return fmt.Errorf("%w: eps_km must be positive, got %v", ErrConfiguration, c.EpsKM)
	}
	if c.MinSamples <= 0 {
		return fmt.Errorf("%w: min_samples must be positive, got %d", ErrConfiguration, c.MinSamples)
	}
	if c.MaxGap <= 0 {
		return fmt.Errorf("%w: max_gap must be positive, got %v", ErrConfiguration, c.MaxGap)
	}
	if c.MinPhotosPerArc <= 0 {
		return fmt.Errorf("%w: min_photos_per_arc must be positive, got %d", ErrConfiguration, c.MinPhotosPerArc)
	}
	if c.YearBucketSize <= 0 {
		return fmt.Errorf("%w: year_bucket_size must be positive, got %d", ErrConfiguration, c.YearBucketSize)
	}
	for i, b := range c.AgeBrackets {
		if b.End < b.Start {
			return fmt.Errorf("%w: age bracket %d (%s) ends before it starts", ErrConfiguration, i, b.Name)
		}
		if i > 0 && b.Start != c.AgeBrackets[i-1].End+1 {
			return fmt.Errorf("%w: age brackets must be contiguous, bracket %d starts at %d after end %d",
				ErrConfiguration, i, b.Start, c.AgeBrackets[i-1].End)
		}
	}
	return nil
}
