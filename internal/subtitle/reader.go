package subtitle

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Reader parses a caption file into a Transcript.
type Reader interface {
	Read() (*Transcript, error)
}

// DefaultReader picks a parser from the file extension: SRT and platform
// caption JSON get structural parsing, anything else falls back to plain
// text with one segment per non-empty line.
type DefaultReader struct {
	path string
}

func NewReader(path string) Reader {
	return &DefaultReader{path: path}
}

func (r *DefaultReader) Read() (*Transcript, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file does not exist: %s", r.path)
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	switch strings.ToLower(ext(r.path)) {
	case ".srt":
		return ParseSRT(string(raw))
	case ".json":
		return ParseCaptionJSON(raw)
	default:
		return ParsePlainText(string(raw)), nil
	}
}

func ext(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}

// ParseSRT parses SubRip text into segments. Malformed blocks are skipped
// rather than failing the whole file.
func ParseSRT(content string) (*Transcript, error) {
	var segments []Segment

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := Segment{Confidence: 1.0}
	state := "index" // "index" -> "time" -> "text"
	var textLines []string

	flush := func() {
		if len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			if current.End > current.Start {
				segments = append(segments, current)
			}
		}
		current = Segment{Confidence: 1.0}
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			if _, err := strconv.Atoi(line); err != nil {
				continue // skip non-index lines
			}
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, err := parseSRTTime(line)
			if err != nil {
				state = "index"
				continue
			}
			current.Start = start
			current.End = end
			state = "text"
			textLines = nil

		case "text":
			if line == "" {
				flush()
				state = "index"
			} else {
				textLines = append(textLines, line)
			}
		}
	}
	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan subtitle content: %w", err)
	}

	tagLanguages(segments)

	return &Transcript{
		Segments: segments,
		Language: dominantLanguage(segments),
		Format:   "SRT",
	}, nil
}

var srtTimeRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})[,.](\d{3}) --> (\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

// parseSRTTime parses "00:02:16,612 --> 00:02:19,376" into float seconds.
func parseSRTTime(timeString string) (float64, float64, error) {
	matches := srtTimeRe.FindStringSubmatch(timeString)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", timeString)
	}

	toSeconds := func(h, m, s, ms string) float64 {
		hours, _ := strconv.Atoi(h)
		minutes, _ := strconv.Atoi(m)
		seconds, _ := strconv.Atoi(s)
		millis, _ := strconv.Atoi(ms)
		return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + float64(millis)/1000
	}

	return toSeconds(matches[1], matches[2], matches[3], matches[4]),
		toSeconds(matches[5], matches[6], matches[7], matches[8]),
		nil
}

// captionJSON is the platform caption payload shape:
// {"lang": "zh", "body": [{"from": 1.2, "to": 3.4, "content": "..."}]}
type captionJSON struct {
	Lang string `json:"lang"`
	Body []struct {
		From    float64 `json:"from"`
		To      float64 `json:"to"`
		Content string  `json:"content"`
	} `json:"body"`
}

// ParseCaptionJSON parses a platform caption JSON payload.
func ParseCaptionJSON(raw []byte) (*Transcript, error) {
	var payload captionJSON
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse caption JSON: %w", err)
	}

	lang := payload.Lang
	if lang == "" {
		lang = "zh"
	}

	segments := make([]Segment, 0, len(payload.Body))
	for _, item := range payload.Body {
		text := strings.TrimSpace(item.Content)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start:      item.From,
			End:        item.To,
			Text:       text,
			Language:   lang,
			Confidence: 1.0,
		})
	}

	return &Transcript{
		Segments: segments,
		Language: lang,
		Format:   "JSON",
	}, nil
}

// ParsePlainText turns free-form text into untimed segments, one per
// non-empty line. Times stay zero; such input only feeds the classifier and
// summarizer, never the aligner.
func ParsePlainText(content string) *Transcript {
	var segments []Segment
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:       line,
			Confidence: 1.0,
		})
	}
	tagLanguages(segments)
	return &Transcript{
		Segments: segments,
		Language: dominantLanguage(segments),
		Format:   "TXT",
	}
}

// tagLanguages fills in per-segment language tags via detection, leaving
// already-tagged segments alone.
func tagLanguages(segments []Segment) {
	for i := range segments {
		if segments[i].Language != "" {
			continue
		}
		segments[i].Language = detectSegmentLanguage(segments[i].Text)
	}
}

func detectSegmentLanguage(text string) string {
	iso := whatlanggo.DetectLang(text).Iso6391()
	if iso == "" {
		return "und"
	}
	return iso
}

// dominantLanguage returns the most frequent per-segment language tag.
func dominantLanguage(segments []Segment) string {
	if len(segments) == 0 {
		return "und"
	}

	counts := make(map[string]int)
	for _, seg := range segments {
		counts[seg.Language]++
	}

	var top string
	var topCount int
	for lang, count := range counts {
		if count > topCount {
			top = lang
			topCount = count
		}
	}
	return top
}
