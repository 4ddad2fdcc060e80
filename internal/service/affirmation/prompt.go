package affirmation

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	model "github.com/zhouzirui/z-affirm/backend/internal/model/affirmation"
)

// outputContract 约束模型按 {affirmation: string} 结构返回。
// FString 模板中不能出现花括号，因此这里只用文字描述结构。
const outputContract = `Reply with a single JSON object that has exactly one string field named "affirmation" holding the affirmation text. Do not include any other fields, commentary or formatting.`

// affirmationPrompt 是固定的用户提示词，只有 topic 和 mood 两个替换点。
const affirmationPrompt = `You are an AI assistant designed to generate personalized affirmations.

Based on the user's input, create an affirmation that is:
- Relevant to the specified topic: {topic}
- Evokes the desired mood or feeling: {mood}

The affirmation should be positive, encouraging, and empowering.

Affirmation:`

func newPromptTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(outputContract),
		schema.UserMessage(affirmationPrompt),
	)
}

// promptVariables 原样传入用户输入，不做裁剪或转义。
func promptVariables(req model.Request) map[string]any {
	return map[string]any{
		"topic": req.Topic,
		"mood":  req.Mood,
	}
}
