package subtitle

import "sort"

// overlapThreshold is the fraction of a zh segment's duration that must be
// covered by an en candidate before the two are considered the same line.
// Strictly greater-than: an exact 75% overlap does not match.
const overlapThreshold = 0.75

// AlignBilingual pairs same-time-window zh and en captions into bilingual
// segments. The zh timeline is the backbone: each zh segment either gains
// the first sufficiently-overlapping en text appended after a newline, or
// stays single-language. Unmatched en segments are dropped. When either
// language is absent the input is returned unchanged.
func AlignBilingual(segments []Segment) []Segment {
	var zh, en []Segment
	for _, seg := range segments {
		switch seg.Language {
		case "zh":
			zh = append(zh, seg)
		case "en":
			en = append(en, seg)
		}
	}

	if len(zh) == 0 || len(en) == 0 {
		return segments
	}

	sort.SliceStable(zh, func(i, j int) bool {
		if zh[i].Start != zh[j].Start {
			return zh[i].Start < zh[j].Start
		}
		return zh[i].End < zh[j].End
	})
	sort.SliceStable(en, func(i, j int) bool {
		if en[i].Start != en[j].Start {
			return en[i].Start < en[j].Start
		}
		return en[i].End < en[j].End
	})

	merged := make([]Segment, 0, len(zh))
	for _, z := range zh {
		if match, ok := firstOverlapping(z, en); ok {
			z.Text = z.Text + "\n" + match.Text
		}
		merged = append(merged, z)
	}
	return merged
}

// firstOverlapping scans en segments in sorted order and returns the first
// whose overlap covers more than overlapThreshold of the zh duration.
// First match wins; ties are not re-examined.
func firstOverlapping(z Segment, en []Segment) (Segment, bool) {
	duration := z.End - z.Start
	if duration <= 0 {
		// zero-duration backbone segment can never reach the ratio
		return Segment{}, false
	}

	for _, e := range en {
		overlapStart := max(z.Start, e.Start)
		overlapEnd := min(z.End, e.End)
		overlap := overlapEnd - overlapStart
		if overlap < 0 {
			overlap = 0
		}
		if overlap/duration > overlapThreshold {
			return e, true
		}
	}
	return Segment{}, false
}
