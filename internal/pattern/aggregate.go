// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package pattern

// Summarize rolls the category and emotion tags of a photo group up
// into dominant-tag statistics.
//
// For each tag kind, every photo contributes its single top-confidence
// tag (ties broken by tag position, which the classifier emits in
// descending confidence anyway). A tag's share is that count divided by
// the number of photos carrying at least one tag of the kind, times
// 100. Photos without tags of a kind are excluded from that
// denominator but still counted in PhotoCount. The dominant tag is the
// one with the highest share, first-seen order breaking ties.
//
// Ids missing from the index are skipped; a group with no tagged photos
// produces empty shares and dominants, never an error.
func Summarize(photoIDs []string, index PhotoIndex) Summary {
	s := Summary{PhotoCount: len(photoIDs)}

	s.DominantCategory, s.CategoryShares = tally(photoIDs, index, func(p *Photo) []Tag {
		return p.CategoryTags
	})
	s.DominantEmotion, s.EmotionShares = tally(photoIDs, index, func(p *Photo) []Tag {
		return p.EmotionTags
	})

	return s
}

// tally computes shares for one tag kind, iterating ids in slice order
// so first-seen tie breaks are deterministic.
func tally(photoIDs []string, index PhotoIndex, tagsOf func(*Photo) []Tag) (string, []TagShare) {
	counts := make(map[string]int)
	var firstSeen []string
	tagged := 0

	for _, id := range photoIDs {
		p, ok := index[id]
		if !ok {
			continue
		}
		top, ok := topTag(tagsOf(p))
		if !ok {
			continue
		}
		tagged++
		if _, seen := counts[top.Name]; !seen {
			firstSeen = append(firstSeen, top.Name)
		}
		counts[top.Name]++
	}

	if tagged == 0 {
		return "", nil
	}

	shares := make([]TagShare, 0, len(firstSeen))
	dominant := ""
	best := -1.0
	for _, name := range firstSeen {
		pct := float64(counts[name]) / float64(tagged) * 100
		shares = append(shares, TagShare{Name: name, Percent: pct})
		if pct > best {
			best = pct
			dominant = name
		}
	}

	return dominant, shares
}

// topTag returns the highest-confidence tag, earliest position winning
// ties.
func topTag(tags []Tag) (Tag, bool) {
	if len(tags) == 0 {
		return Tag{}, false
	}
	top := tags[0]
	for _, t := range tags[1:] {
		if t.Confidence > top.Confidence {
			top = t
		}
	}
	return top, true
}
