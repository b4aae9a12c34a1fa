// Package strategy turns raw subtitle text into frame-sampling and
// prompting parameters for the rest of the pipeline.
package strategy

import "strings"

// Lang is the caller's language preference for the summary output.
type Lang string

const (
	LangAuto Lang = "auto"
	LangZH   Lang = "zh"
	LangEN   Lang = "en"
)

// Kind labels the detected content type.
type Kind string

const (
	KindTutorial Kind = "tutorial"
	KindSlides   Kind = "slides"
	KindGame     Kind = "game"
	KindTalk     Kind = "talk"
	KindVlog     Kind = "vlog"
	KindMovie    Kind = "movie"
	KindUnknown  Kind = "unknown"
)

// PromptStyle selects which vision-prompt template gets used per frame.
type PromptStyle string

const (
	StyleSlideExtractor  PromptStyle = "slide_extractor"
	StyleUIExtractor     PromptStyle = "ui_extractor"
	StyleSceneDescriptor PromptStyle = "scene_descriptor"
	StyleGeneric         PromptStyle = "generic"
)

// Strategy is the classifier output: how densely to sample frames and how
// to prompt the vision model. Computed once per run, read-only after.
type Strategy struct {
	Kind         Kind        `json:"kind"`
	Sampling     string      `json:"sampling"` // always "uniform" for now
	FramesPerMin int         `json:"frames_per_min"`
	MaxFrames    int         `json:"max_frames"`
	PromptStyle  PromptStyle `json:"vlm_prompt_style"`
	Language     string      `json:"language"`
}

// cjkLanguageThreshold is how many CJK code points the text needs before
// auto language resolution picks Chinese.
const cjkLanguageThreshold = 50

// rule pairs an ordered keyword group with the parameters it fixes.
// Order matters: the first group with any keyword present in the
// case-folded text wins. Downstream cache keys depend on this ordering
// staying reproducible, so do not reorder or "deduplicate" the lists.
type rule struct {
	kind         Kind
	keywords     []string
	framesPerMin int
	maxFrames    int
	style        PromptStyle
}

var rules = []rule{
	{KindTutorial, []string{"教程", "步骤", "安装", "点击", "配置", "chapter", "lesson", "slide", "ppt", "目录"}, 12, 80, StyleSlideExtractor},
	{KindSlides, []string{"ppt", "幻灯片", "slide", "presentation"}, 10, 70, StyleSlideExtractor},
	{KindGame, []string{"游戏", "击杀", "排位", "live", "match", "gameplay"}, 20, 120, StyleUIExtractor},
	{KindTalk, []string{"演讲", "访谈", "播客", "talk", "podcast", "interview"}, 6, 60, StyleSceneDescriptor},
	{KindVlog, []string{"vlog", "旅行", "日常", "记录"}, 8, 80, StyleSceneDescriptor},
	{KindMovie, []string{"电影", "剧情", "片段", "movie", "scene"}, 15, 100, StyleSceneDescriptor},
}

// Decide classifies subtitle text into a Strategy. It is a total function:
// any input, including empty text, yields a usable Strategy with positive
// sampling parameters.
func Decide(subtitleText string, preferred Lang) Strategy {
	lang := resolveLanguage(subtitleText, preferred)
	text := strings.ToLower(subtitleText)

	for _, r := range rules {
		if containsAny(text, r.keywords) {
			return Strategy{
				Kind:         r.kind,
				Sampling:     "uniform",
				FramesPerMin: r.framesPerMin,
				MaxFrames:    r.maxFrames,
				PromptStyle:  r.style,
				Language:     lang,
			}
		}
	}

	return Strategy{
		Kind:         KindUnknown,
		Sampling:     "uniform",
		FramesPerMin: 10,
		MaxFrames:    80,
		PromptStyle:  StyleGeneric,
		Language:     lang,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// resolveLanguage honors an explicit preference, otherwise counts CJK code
// points and picks Chinese above the threshold.
func resolveLanguage(text string, preferred Lang) string {
	if preferred == LangZH || preferred == LangEN {
		return string(preferred)
	}

	cjk := 0
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			cjk++
		}
	}
	if cjk > cjkLanguageThreshold {
		return string(LangZH)
	}
	return string(LangEN)
}
