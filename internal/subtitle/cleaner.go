package subtitle

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"vidsum/pkg/log"
)

const (
	// mergeGapSeconds is the maximum silence between two captions for them
	// to be merge candidates.
	mergeGapSeconds = 0.5
	// mergeMaxLen bounds the text length (in runes) of both captions in a
	// merge; longer lines are independently meaningful and stay separate.
	mergeMaxLen = 20
)

var promoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`关注.*?获取更多精彩内容`),
	regexp.MustCompile(`#.*?#`),
	regexp.MustCompile(`\s*—{2,}\s*`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanReport describes what a cleaning pass did, so callers can report
// skip counts instead of the cleaner mutating shared statistics.
type CleanReport struct {
	Input          int `json:"input"`
	DroppedEmpty   int `json:"dropped_empty"`
	DroppedInvalid int `json:"dropped_invalid"`
	Merged         int `json:"merged"`
	Output         int `json:"output"`
}

// Clean strips promotional boilerplate, normalizes whitespace, drops empty
// segments and merges adjacent short fragments. The input slice is not
// mutated; output preserves start-time order and never contains empty text.
func Clean(segments []Segment) ([]Segment, CleanReport) {
	report := CleanReport{Input: len(segments)}

	cleaned := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.End <= seg.Start {
			log.Warn("dropping malformed segment [%.3f, %.3f]", seg.Start, seg.End)
			report.DroppedInvalid++
			continue
		}

		text := seg.Text
		for _, re := range promoPatterns {
			text = re.ReplaceAllString(text, "")
		}
		text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

		if text == "" {
			report.DroppedEmpty++
			continue
		}

		seg.Text = text
		cleaned = append(cleaned, seg)
	}

	if len(cleaned) > 1 {
		merged := make([]Segment, 0, len(cleaned))
		merged = append(merged, cleaned[0])
		for _, curr := range cleaned[1:] {
			prev := &merged[len(merged)-1]

			gap := curr.Start - prev.End
			if gap < mergeGapSeconds &&
				utf8.RuneCountInString(prev.Text) < mergeMaxLen &&
				utf8.RuneCountInString(curr.Text) < mergeMaxLen {
				prev.Text = prev.Text + " " + curr.Text
				prev.End = curr.End
				report.Merged++
			} else {
				merged = append(merged, curr)
			}
		}
		cleaned = merged
	}

	report.Output = len(cleaned)
	return cleaned, report
}
