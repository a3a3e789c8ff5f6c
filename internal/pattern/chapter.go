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

// AssembleChapters groups story arcs into chronologically ordered
// chapters. With a birth date, chapters follow the configured age
// brackets (contiguous, covering every year with a photo); without one,
// chapters follow calendar years, optionally bucketed by
// cfg.YearBucketSize for sparse libraries.
//
// Every timestamped photo maps to exactly one chapter. Each arc is
// assigned to the chapter holding the majority of its photos' capture
// years, earliest arc photo breaking ties; arcs with no timestamped
// photos stay unassigned. Within each chapter, photo conflicts between
// arcs are resolved by ResolveArcConflicts, and the chapter's dominant
// emotion is re-aggregated at the photo level over the union of its
// arcs' photos so large arcs are not double-counted.
func AssembleChapters(arcs []StoryArc, photos []Photo, birthDate *time.Time, cfg Config) ([]Chapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	index, err := IndexPhotos(photos)
	if err != nil {
		return nil, err
	}

	var stamped []PhotoTime
	for i := range photos {
		if photos[i].CapturedAt != nil {
			stamped = append(stamped, PhotoTime{ID: photos[i].ID, At: *photos[i].CapturedAt})
		}
	}
	if len(stamped) == 0 {
		return nil, nil
	}
	sort.SliceStable(stamped, func(i, j int) bool {
		if !stamped[i].At.Equal(stamped[j].At) {
			return stamped[i].At.Before(stamped[j].At)
		}
		return stamped[i].ID < stamped[j].ID
	})

	var chapters []Chapter
	if birthDate != nil {
		chapters = ageChapters(stamped, *birthDate, cfg.AgeBrackets)
	} else {
		chapters = yearChapters(stamped, cfg.YearBucketSize)
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].YearStart < chapters[j].YearStart
	})
	for i := range chapters {
		chapters[i].Sequence = i
		chapters[i].ID = chapterID(chapters[i])
	}

	assignArcs(chapters, arcs, index)

	for i := range chapters {
		ch := &chapters[i]
		ch.StoryArcs = ResolveArcConflicts(ch.StoryArcs, index, cfg.MinPhotosPerArc)

		var union []string
		for _, arc := range ch.StoryArcs {
			union = append(union, arc.PhotoIDs...)
		}
		s := Summarize(orderByCapture(uniqueIDs(union), index), index)
		ch.DominantEmotion = s.DominantEmotion
	}

	return chapters, nil
}

// ageChapters builds one chapter per age bracket holding at least one
// photo. Ages before the first bracket or past the last clamp to the
// boundary brackets so every photo stays covered.
func ageChapters(stamped []PhotoTime, birthDate time.Time, brackets []AgeBracket) []Chapter {
	if len(brackets) == 0 {
		brackets = DefaultAgeBrackets()
	}

	byBracket := make(map[int][]string)
	for _, pt := range stamped {
		age := ageAt(birthDate, pt.At)
		byBracket[bracketIndex(brackets, age)] = append(byBracket[bracketIndex(brackets, age)], pt.ID)
	}

	var chapters []Chapter
	for bi, b := range brackets {
		ids := byBracket[bi]
		if len(ids) == 0 {
			continue
		}
		ageStart, ageEnd := b.Start, b.End
		yearStart := birthDate.Year() + b.Start
		yearEnd := birthDate.Year() + b.End

		ageStr := fmt.Sprintf("Ages %d-%d", ageStart, ageEnd)
		if ageStart == ageEnd {
			ageStr = fmt.Sprintf("Age %d", ageStart)
		}

		chapters = append(chapters, Chapter{
			Title:      b.Name,
			Subtitle:   fmt.Sprintf("%s (%d-%d)", ageStr, yearStart, yearEnd),
			Kind:       ChapterAgeBased,
			AgeStart:   &ageStart,
			AgeEnd:     &ageEnd,
			YearStart:  yearStart,
			YearEnd:    yearEnd,
			PhotoIDs:   ids,
			PhotoCount: len(ids),
		})
	}
	return chapters
}

// yearChapters builds calendar-year chapters, bucketing bucketSize
// consecutive years together when bucketSize > 1.
func yearChapters(stamped []PhotoTime, bucketSize int) []Chapter {
	minYear := stamped[0].At.Year()

	byBucket := make(map[int][]string)
	for _, pt := range stamped {
		bucket := (pt.At.Year() - minYear) / bucketSize
		byBucket[bucket] = append(byBucket[bucket], pt.ID)
	}

	buckets := make([]int, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	var chapters []Chapter
	for _, b := range buckets {
		yearStart := minYear + b*bucketSize
		yearEnd := yearStart + bucketSize - 1

		title := fmt.Sprintf("Life in %d", yearStart)
		if yearEnd > yearStart {
			title = fmt.Sprintf("Memories %d-%d", yearStart, yearEnd)
		}

		chapters = append(chapters, Chapter{
			Title:      title,
			Kind:       ChapterYearBased,
			YearStart:  yearStart,
			YearEnd:    yearEnd,
			PhotoIDs:   byBucket[b],
			PhotoCount: len(byBucket[b]),
		})
	}
	return chapters
}

// assignArcs places each arc in the chapter whose year range contains
// the majority of its timestamped photos, tie broken by the chapter of
// the arc's earliest photo, then by earliest start year.
func assignArcs(chapters []Chapter, arcs []StoryArc, index PhotoIndex) {
	chapterFor := func(t time.Time) int {
		for i := range chapters {
			y := t.Year()
			if y >= chapters[i].YearStart && y <= chapters[i].YearEnd {
				return i
			}
		}
		return -1
	}

	for _, arc := range arcs {
		counts := make(map[int]int)
		var earliest *time.Time
		earliestChapter := -1

		for _, id := range arc.PhotoIDs {
			t := captureOf(index[id])
			if t == nil {
				continue
			}
			ci := chapterFor(*t)
			if ci < 0 {
				continue
			}
			counts[ci]++
			if earliest == nil || t.Before(*earliest) {
				earliest = t
				earliestChapter = ci
			}
		}
		if len(counts) == 0 {
			continue
		}

		best := -1
		bestCount := 0
		for ci := range chapters {
			c := counts[ci]
			if c == 0 {
				continue
			}
			switch {
			case c > bestCount:
				best, bestCount = ci, c
			case c == bestCount && ci == earliestChapter:
				best = ci
			}
		}
		if counts[earliestChapter] == bestCount {
			best = earliestChapter
		}
		chapters[best].StoryArcs = append(chapters[best].StoryArcs, arc)
	}
}

// ageAt computes a person's age at the given moment.
func ageAt(birthDate, at time.Time) int {
	age := at.Year() - birthDate.Year()
	if at.Month() < birthDate.Month() ||
		(at.Month() == birthDate.Month() && at.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// bracketIndex finds the bracket containing age, clamping out-of-table
// ages to the boundary brackets.
func bracketIndex(brackets []AgeBracket, age int) int {
	if age < brackets[0].Start {
		return 0
	}
	for i, b := range brackets {
		if age >= b.Start && age <= b.End {
			return i
		}
	}
	return len(brackets) - 1
}

// chapterID derives a stable UUIDv5 from the chapter's kind and range.
func chapterID(c Chapter) string {
	key := strings.Join([]string{
		"chapter", string(c.Kind),
		fmt.Sprintf("%d", c.YearStart),
		fmt.Sprintf("%d", c.YearEnd),
	}, "|")
	return uuid.NewSHA1(arcNamespace, []byte(key)).String()
}
