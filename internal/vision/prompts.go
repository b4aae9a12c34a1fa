package vision

import "vidsum/internal/strategy"

// BuildPrompt returns the per-frame instruction for the given prompt style
// and output language.
func BuildPrompt(style strategy.PromptStyle, language string) string {
	if language == "zh" {
		switch style {
		case strategy.StyleSlideExtractor:
			return "你是PPT/教程画面解析助手。请从图片中提取: 1) 标题/小标题 2) 关键要点(尽量有层级) 3) 重要术语 4) 公式/代码 5) 屏幕文字。" +
				"以JSON输出，字段: scene_title, bullet_points[], text_on_screen[], code_or_formula[], notes。"
		case strategy.StyleUIExtractor:
			return "你是游戏/应用UI解析助手。请从图片中提取: 1) 画面主要元素 2) UI状态(血量/分数/时间等) 3) 发生的行动 4) 屏幕文字。" +
				"以JSON输出，字段: scene_title, objects[], ui_state{...}, actions[], text_on_screen[], notes。"
		case strategy.StyleSceneDescriptor:
			return "你是视频画面描述助手。请简要描述场景、人物/物体、动作以及关键信息。" +
				"以JSON输出，字段: scene_title, description, key_entities[], actions[], text_on_screen[], notes。"
		default:
			return "从图片中提取关键信息，以JSON输出: scene_title, description, text_on_screen[], objects[], notes。"
		}
	}

	switch style {
	case strategy.StyleSlideExtractor:
		return "You are a slide/tutorial parser. Extract: 1) title/subtitles 2) key bullet points 3) important terms" +
			" 4) formulas/code 5) on-screen text. Output JSON with: scene_title, bullet_points[], text_on_screen[]," +
			" code_or_formula[], notes."
	case strategy.StyleUIExtractor:
		return "You are a UI/gameplay parser. Extract: 1) main elements 2) UI state (HP/score/time etc.) 3) actions" +
			" 4) on-screen text. Output JSON: scene_title, objects[], ui_state{...}, actions[], text_on_screen[], notes."
	case strategy.StyleSceneDescriptor:
		return "You are a scene describer. Summarize scene, entities, actions, and key details. Output JSON:" +
			" scene_title, description, key_entities[], actions[], text_on_screen[], notes."
	default:
		return "Extract key info from the image. Output JSON: scene_title, description, text_on_screen[], objects[], notes."
	}
}
