// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

import (
	"fmt"
	"testing"
	"time"
)

func photoAt(id string, year int, month time.Month, day int) Photo {
	at := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return Photo{ID: id, CapturedAt: &at}
}

func TestAssembleChapters_YearBased(t *testing.T) {
	photos := []Photo{
		photoAt("a", 2019, time.March, 1),
		photoAt("b", 2019, time.July, 4),
		photoAt("c", 2021, time.January, 2),
		{ID: "untimed"}, // excluded from chapter grouping
	}

	chapters, err := AssembleChapters(nil, photos, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("AssembleChapters() error = %v", err)
	}

	if len(chapters) != 2 {
		t.Fatalf("chapters = %d, want 2 (2019 and 2021)", len(chapters))
	}
	if chapters[0].YearStart != 2019 || chapters[1].YearStart != 2021 {
		t.Errorf("chapter years = %d, %d; want 2019, 2021", chapters[0].YearStart, chapters[1].YearStart)
	}
	if chapters[0].Title != "Life in 2019" {
		t.Errorf("title = %q, want %q", chapters[0].Title, "Life in 2019")
	}
	if chapters[0].PhotoCount != 2 || chapters[1].PhotoCount != 1 {
		t.Errorf("photo counts = %d, %d; want 2, 1", chapters[0].PhotoCount, chapters[1].PhotoCount)
	}
}

func TestAssembleChapters_YearBuckets(t *testing.T) {
	photos := []Photo{
		photoAt("a", 2018, time.March, 1),
		photoAt("b", 2019, time.July, 4),
		photoAt("c", 2020, time.May, 2),
		photoAt("d", 2021, time.June, 9),
	}
	cfg := DefaultConfig()
	cfg.YearBucketSize = 2

	chapters, err := AssembleChapters(nil, photos, nil, cfg)
	if err != nil {
		t.Fatalf("AssembleChapters() error = %v", err)
	}

	if len(chapters) != 2 {
		t.Fatalf("chapters = %d, want 2 buckets of 2 years", len(chapters))
	}
	if chapters[0].YearStart != 2018 || chapters[0].YearEnd != 2019 {
		t.Errorf("bucket 0 range = %d-%d, want 2018-2019", chapters[0].YearStart, chapters[0].YearEnd)
	}
	if chapters[0].Title != "Memories 2018-2019" {
		t.Errorf("title = %q, want %q", chapters[0].Title, "Memories 2018-2019")
	}
}

func TestAssembleChapters_AgeBased(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	photos := []Photo{
		photoAt("a", 1993, time.August, 1),  // age 3: Early Childhood
		photoAt("b", 1998, time.March, 1),   // age 7: Childhood Wonder
		photoAt("c", 2005, time.August, 10), // age 15: Teenage Years
	}

	chapters, err := AssembleChapters(nil, photos, &birth, DefaultConfig())
	if err != nil {
		t.Fatalf("AssembleChapters() error = %v", err)
	}

	if len(chapters) != 3 {
		t.Fatalf("chapters = %d, want 3", len(chapters))
	}
	wantTitles := []string{"Early Childhood", "Childhood Wonder", "Teenage Years"}
	for i, want := range wantTitles {
		if chapters[i].Title != want {
			t.Errorf("chapter %d title = %q, want %q", i, chapters[i].Title, want)
		}
	}
	if *chapters[0].AgeStart != 0 || *chapters[0].AgeEnd != 5 {
		t.Errorf("chapter 0 ages = %d-%d, want 0-5", *chapters[0].AgeStart, *chapters[0].AgeEnd)
	}
	if chapters[0].YearStart != 1990 || chapters[0].YearEnd != 1995 {
		t.Errorf("chapter 0 years = %d-%d, want 1990-1995", chapters[0].YearStart, chapters[0].YearEnd)
	}
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"day before birthday", time.Date(2000, time.June, 14, 0, 0, 0, 0, time.UTC), 9},
		{"on birthday", time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC), 10},
		{"later in year", time.Date(2000, time.December, 1, 0, 0, 0, 0, time.UTC), 10},
		{"earlier month", time.Date(2000, time.February, 1, 0, 0, 0, 0, time.UTC), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ageAt(birth, tt.at); got != tt.want {
				t.Errorf("ageAt() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestAssembleChapters_PartitionProperty verifies that every
// timestamped photo lands in exactly one chapter and that chapters are
// strictly ordered by ascending start year.
func TestAssembleChapters_PartitionProperty(t *testing.T) {
	var photos []Photo
	years := []int{2010, 2010, 2013, 2015, 2015, 2015, 2020}
	for i, y := range years {
		photos = append(photos, photoAt(fmt.Sprintf("p%d", i), y, time.April, 1+i))
	}
	photos = append(photos, Photo{ID: "untimed"})

	for _, bucketSize := range []int{1, 2, 3} {
		cfg := DefaultConfig()
		cfg.YearBucketSize = bucketSize
		chapters, err := AssembleChapters(nil, photos, nil, cfg)
		if err != nil {
			t.Fatalf("bucket size %d: AssembleChapters() error = %v", bucketSize, err)
		}

		seen := make(map[string]int)
		for _, ch := range chapters {
			for _, id := range ch.PhotoIDs {
				seen[id]++
			}
		}
		if len(seen) != len(years) {
			t.Errorf("bucket size %d: chapters cover %d photos, want %d", bucketSize, len(seen), len(years))
		}
		for id, n := range seen {
			if n != 1 {
				t.Errorf("bucket size %d: photo %s in %d chapters", bucketSize, id, n)
			}
		}
		for i := 1; i < len(chapters); i++ {
			if chapters[i].YearStart <= chapters[i-1].YearStart {
				t.Errorf("bucket size %d: chapters not strictly ordered by start year", bucketSize)
			}
			if chapters[i].Sequence != i {
				t.Errorf("bucket size %d: sequence = %d, want %d", bucketSize, chapters[i].Sequence, i)
			}
		}
	}
}

func TestAssembleChapters_ArcAssignedByMajorityYear(t *testing.T) {
	photos := []Photo{
		photoAt("a", 2019, time.November, 1),
		photoAt("b", 2019, time.December, 1),
		photoAt("c", 2020, time.January, 5),
		photoAt("d", 2020, time.June, 1),
		photoAt("e", 2020, time.July, 1),
	}
	index := mustIndex(t, photos)

	// Arc straddles the year boundary with 2 photos in 2019, 3 in 2020.
	arc := StoryArc{
		ID:         "straddler",
		Type:       PatternTemporal,
		Confidence: 0.8,
		PhotoIDs:   []string{"a", "b", "c", "d", "e"},
		Summary:    Summarize([]string{"a", "b", "c", "d", "e"}, index),
	}

	chapters, err := AssembleChapters([]StoryArc{arc}, photos, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("AssembleChapters() error = %v", err)
	}

	if len(chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(chapters))
	}
	if got := len(chapters[0].StoryArcs); got != 0 {
		t.Errorf("2019 chapter arcs = %d, want 0", got)
	}
	if got := len(chapters[1].StoryArcs); got != 1 {
		t.Errorf("2020 chapter arcs = %d, want 1 (majority year)", got)
	}
}

func TestAssembleChapters_ArcTieBrokenByEarliestPhoto(t *testing.T) {
	photos := []Photo{
		photoAt("a", 2019, time.November, 1),
		photoAt("b", 2019, time.December, 1),
		photoAt("c", 2020, time.January, 5),
		photoAt("d", 2020, time.February, 1),
	}
	index := mustIndex(t, photos)

	arc := StoryArc{
		ID:         "tied",
		Type:       PatternTemporal,
		Confidence: 0.8,
		PhotoIDs:   []string{"a", "b", "c", "d"},
		Summary:    Summarize([]string{"a", "b", "c", "d"}, index),
	}
	cfg := DefaultConfig()
	cfg.MinPhotosPerArc = 3

	chapters, err := AssembleChapters([]StoryArc{arc}, photos, nil, cfg)
	if err != nil {
		t.Fatalf("AssembleChapters() error = %v", err)
	}

	// 2 photos per year: the arc goes to the chapter holding its
	// earliest photo (2019).
	if got := len(chapters[0].StoryArcs); got != 1 {
		t.Errorf("2019 chapter arcs = %d, want 1 on tie", got)
	}
	if got := len(chapters[1].StoryArcs); got != 0 {
		t.Errorf("2020 chapter arcs = %d, want 0 on tie", got)
	}
}

func TestAssembleChapters_DominantEmotionAggregatedAtPhotoLevel(t *testing.T) {
	happy := []Tag{{Name: "happy", Confidence: 0.9}}
	calm := []Tag{{Name: "calm", Confidence: 0.9}}

	var photos []Photo
	// 5 happy photos in one arc, 3 calm in another: photo-level
	// aggregation must weigh individual photos, not arc summaries.
	for i := 0; i < 5; i++ {
		p := photoAt(fmt.Sprintf("h%d", i), 2020, time.March, 1+i)
		p.EmotionTags = happy
		photos = append(photos, p)
	}
	for i := 0; i < 3; i++ {
		p := photoAt(fmt.Sprintf("c%d", i), 2020, time.August, 1+i)
		p.EmotionTags = calm
		photos = append(photos, p)
	}
	index := mustIndex(t, photos)

	arcHappy := StoryArc{ID: "happy-arc", Type: PatternTemporal, Confidence: 0.7,
		PhotoIDs: []string{"h0", "h1", "h2", "h3", "h4"}}
	arcHappy.Summary = Summarize(arcHappy.PhotoIDs, index)
	arcCalm := StoryArc{ID: "calm-arc", Type: PatternTemporal, Confidence: 0.6,
		PhotoIDs: []string{"c0", "c1", "c2"}, seq: 1}
	arcCalm.Summary = Summarize(arcCalm.PhotoIDs, index)

	chapters, err := AssembleChapters([]StoryArc{arcHappy, arcCalm}, photos, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("AssembleChapters() error = %v", err)
	}

	if len(chapters) != 1 {
		t.Fatalf("chapters = %d, want 1", len(chapters))
	}
	if chapters[0].DominantEmotion != "happy" {
		t.Errorf("chapter dominant emotion = %q, want %q (5 happy vs 3 calm photos)",
			chapters[0].DominantEmotion, "happy")
	}
}

func TestAssembleChapters_NoTimestampedPhotos(t *testing.T) {
	chapters, err := AssembleChapters(nil, []Photo{{ID: "a"}, {ID: "b"}}, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("AssembleChapters() error = %v", err)
	}
	if len(chapters) != 0 {
		t.Errorf("chapters = %d, want 0 for untimestamped library", len(chapters))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero eps", func(c *Config) { c.EpsKM = 0 }, true},
		{"negative eps", func(c *Config) { c.EpsKM = -1 }, true},
		{"zero min samples", func(c *Config) { c.MinSamples = 0 }, true},
		{"zero max gap", func(c *Config) { c.MaxGap = 0 }, true},
		{"zero min photos per arc", func(c *Config) { c.MinPhotosPerArc = 0 }, true},
		{"zero year bucket", func(c *Config) { c.YearBucketSize = 0 }, true},
		{"inverted bracket", func(c *Config) {
			c.AgeBrackets = []AgeBracket{{Start: 5, End: 0, Name: "bad"}}
		}, true},
		{"gap between brackets", func(c *Config) {
			c.AgeBrackets = []AgeBracket{
				{Start: 0, End: 5, Name: "a"},
				{Start: 7, End: 10, Name: "b"},
			}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
