package affirmation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxFieldLength 限制 topic / mood 的长度（按字符计）。
const MaxFieldLength = 500

// Request 描述一次生成请求，提交后不再修改。
type Request struct {
	Topic string `json:"topic" validate:"notblank,max=500"`
	Mood  string `json:"mood" validate:"notblank,max=500"`
}

// Response 是模型输出经过校验后的结果。
type Response struct {
	Affirmation string `json:"affirmation"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate 校验请求字段。空白字符串同样视为缺失，字段内容本身不做任何改写。
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return InvalidInput("invalid request", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "notblank":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return InvalidInput(strings.Join(messages, "; "), err)
}

// Validate 确认 affirmation 为非空字符串。
func (r Response) Validate() error {
	if strings.TrimSpace(r.Affirmation) == "" {
		return MissingOutput("affirmation is empty")
	}
	return nil
}

// DecodeRequest 从 JSON 中解析请求。字段类型不符、JSON 非法或对象后还有多余内容都返回 invalid_input；
// 未知字段会被忽略。
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "" {
				return Request{}, InvalidInput("request body must be a JSON object", err)
			}
			return Request{}, InvalidInput(fmt.Sprintf("%s must be a string", typeErr.Field), err)
		}
		return Request{}, InvalidInput("invalid request body", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Request{}, InvalidInput("request body must contain a single JSON object", err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}
