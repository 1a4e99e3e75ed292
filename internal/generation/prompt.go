package generation

import (
	"strconv"
	"strings"

	"github.com/socialismbuilder/ContextFlow/internal/config"
)

// Built-in prompt templates. Placeholders are substituted verbatim; a custom
// template from the configuration may use the same placeholders.
const (
	defaultPromptTemplate = `你是一位专业的{language}教学助手。请为词汇 "{keyword}" 生成 {sentence_count} 个{language}例句及对应的中文翻译。

学习者情况：
- 词汇量水平：{vocab_level}
- 学习目标：{learning_goal}
- 句子难度：{difficulty_level}
- 句子长度：{sentence_length_desc}

要求：
1. 每个例句都必须包含词汇 "{keyword}"，语境自然且彼此不同
2. 例句的难度和长度要符合学习者情况
3. 翻译准确、通顺

请严格按照以下 JSON 格式返回，不要输出任何其他内容：
{"sentences": [["例句1", "翻译1"], ["例句2", "翻译2"]]}`

	highlightPromptTemplate = `你是一位专业的{language}教学助手。请为词汇 "{keyword}" 生成 {sentence_count} 个{language}例句及对应的中文翻译。

学习者情况：
- 词汇量水平：{vocab_level}
- 学习目标：{learning_goal}
- 句子难度：{difficulty_level}
- 句子长度：{sentence_length_desc}

要求：
1. 每个例句都必须包含词汇 "{keyword}"，语境自然且彼此不同
2. 在例句中用 <u></u> 标签标记词汇 "{keyword}"，并在翻译中用 <u></u> 标签标记其对应译文
3. 例句的难度和长度要符合学习者情况
4. 翻译准确、通顺

请严格按照以下 JSON 格式返回，不要输出任何其他内容：
{"sentences": [["例句1", "翻译1"], ["例句2", "翻译2"]]}`
)

// BuildPrompt renders the generation prompt for keyword from the learner
// snapshot. A non-empty custom template takes precedence over the built-in
// ones.
func BuildPrompt(keyword string, learner config.Learner) string {
	tmpl := learner.PromptTemplate
	if tmpl == "" {
		if learner.Highlight {
			tmpl = highlightPromptTemplate
		} else {
			tmpl = defaultPromptTemplate
		}
	}

	r := strings.NewReplacer(
		"{keyword}", keyword,
		"{language}", learner.Language,
		"{vocab_level}", learner.VocabLevel,
		"{learning_goal}", learner.LearningGoal,
		"{difficulty_level}", learner.DifficultyLevel,
		"{sentence_length_desc}", learner.SentenceLengthDesc,
		"{sentence_count}", strconv.Itoa(learner.SentenceCount),
	)
	return r.Replace(tmpl)
}
