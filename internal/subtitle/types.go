package subtitle

// Segment is the shared unit of caption data flowing through the pipeline.
// Times are seconds from the start of the video. Text may carry an embedded
// secondary-language block separated by a line break after bilingual merge.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Auto       bool    `json:"is_machine_generated"`
	Confidence float64 `json:"confidence"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Valid reports whether the segment can be retained: a positive time span
// and non-empty text.
func (s Segment) Valid() bool {
	return s.End > s.Start && s.Text != ""
}

// Transcript holds an ordered caption sequence plus the source it was
// parsed from.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
	Format   string    `json:"format"` // e.g. SRT, JSON, TXT
}

// Timed reports whether the segments carry real timestamps. Plain-text
// transcripts have none, so time-keyed cleanup and alignment do not apply
// to them.
func (t Transcript) Timed() bool {
	return t.Format != "TXT"
}

// Text joins all segment texts with newlines, the form consumed by the
// strategy classifier and the summarizer.
func (t Transcript) Text() string {
	if len(t.Segments) == 0 {
		return ""
	}
	total := 0
	for _, seg := range t.Segments {
		total += len(seg.Text) + 1
	}
	buf := make([]byte, 0, total)
	for i, seg := range t.Segments {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, seg.Text...)
	}
	return string(buf)
}
