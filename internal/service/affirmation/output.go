package affirmation

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	model "github.com/zhouzirui/z-affirm/backend/internal/model/affirmation"
)

// parseOutput 将模型回复整理为 Response。
// 回复中包含 JSON 对象时必须带有字符串类型的 affirmation 字段；
// 纯文本回复则把去掉标签和引号后的正文作为 affirmation。
func parseOutput(msg *schema.Message) (model.Response, error) {
	if msg == nil {
		return model.Response{}, model.MissingOutput("provider returned no message")
	}

	content := stripCodeFence(strings.TrimSpace(msg.Content))
	if content == "" {
		return model.Response{}, model.MissingOutput("provider returned empty content")
	}

	if strings.HasPrefix(content, "[") && json.Valid([]byte(content)) {
		return model.Response{}, model.MissingOutput("reply is a JSON array, expected an object")
	}

	if fields, start, ok := firstJSONObject(content); ok {
		raw, hasField := fields["affirmation"]
		// 句中出现的空 {} 不算 JSON 回复
		if hasField || start == 0 || len(fields) > 0 {
			return affirmationFromField(raw, hasField)
		}
	}

	text := cleanPlainText(content)
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return model.Response{}, model.MissingOutput("reply is malformed JSON")
	}
	resp := model.Response{Affirmation: text}
	if err := resp.Validate(); err != nil {
		return model.Response{}, err
	}
	return resp, nil
}

func affirmationFromField(raw json.RawMessage, present bool) (model.Response, error) {
	if !present || string(raw) == "null" {
		return model.Response{}, model.MissingOutput("affirmation field is missing")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return model.Response{}, model.MissingOutput("affirmation field is not a string")
	}
	resp := model.Response{Affirmation: strings.TrimSpace(text)}
	if err := resp.Validate(); err != nil {
		return model.Response{}, err
	}
	return resp, nil
}

// firstJSONObject 从每个 "{" 处尝试解码一个 JSON 对象，返回第一个成功的对象及其起始位置。
// Decoder 只读取一个值，对象后面的内容会被忽略。
func firstJSONObject(content string) (map[string]json.RawMessage, int, bool) {
	for offset := 0; offset < len(content); {
		idx := strings.IndexByte(content[offset:], '{')
		if idx == -1 {
			break
		}
		start := offset + idx

		var fields map[string]json.RawMessage
		if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&fields); err == nil {
			return fields, start, true
		}
		offset = start + 1
	}
	return nil, -1, false
}

// stripCodeFence 去掉模型有时包在外层的 markdown 代码块。
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	body := strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

func cleanPlainText(content string) string {
	text := strings.TrimSpace(content)
	if len(text) >= len("affirmation:") && strings.EqualFold(text[:len("affirmation:")], "affirmation:") {
		text = strings.TrimSpace(text[len("affirmation:"):])
	}
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(text) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) {
			text = strings.TrimSpace(text[len(pair[0]) : len(text)-len(pair[1])])
			break
		}
	}
	return text
}
