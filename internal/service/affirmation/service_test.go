package affirmation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	model "github.com/zhouzirui/z-affirm/backend/internal/model/affirmation"
	"github.com/zhouzirui/z-affirm/backend/internal/provider/stub"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T, fn stub.Func, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), fn, opts...)
	require.NoError(t, err)
	return svc
}

func replyWith(content string) stub.Func {
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

func TestGenerateWithStubProvider(t *testing.T) {
	svc, err := NewService(context.Background(), stub.New("Stub affirmation"))
	require.NoError(t, err)

	resp, err := svc.Generate(context.Background(), model.Request{Topic: "friendship", Mood: "joyful"})
	require.NoError(t, err)
	assert.Equal(t, model.Response{Affirmation: "Stub affirmation"}, resp)
}

func TestGenerateSubstitutesTopicAndMood(t *testing.T) {
	provider := stub.New("ok")
	svc, err := NewService(context.Background(), provider)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), model.Request{Topic: "career", Mood: "confident"})
	require.NoError(t, err)

	prompt := provider.LastPrompt()
	require.Len(t, prompt, 2)
	assert.Equal(t, schema.System, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, `"affirmation"`)
	assert.Equal(t, schema.User, prompt[1].Role)
	assert.Contains(t, prompt[1].Content, "topic: career")
	assert.Contains(t, prompt[1].Content, "feeling: confident")
	assert.True(t, strings.HasSuffix(prompt[1].Content, "Affirmation:"))
}

func TestGenerateCopiesInputVerbatim(t *testing.T) {
	provider := stub.New("ok")
	svc, err := NewService(context.Background(), provider)
	require.NoError(t, err)

	topic := "  {mood} & <b>growth</b> "
	_, err = svc.Generate(context.Background(), model.Request{Topic: topic, Mood: "calm"})
	require.NoError(t, err)

	prompt := provider.LastPrompt()
	require.Len(t, prompt, 2)
	assert.Contains(t, prompt[1].Content, "topic: "+topic+"\n")
	assert.Contains(t, prompt[1].Content, "feeling: calm\n")
}

func TestGenerateRejectsInvalidInputBeforeCallingProvider(t *testing.T) {
	provider := stub.New("ok")
	svc, err := NewService(context.Background(), provider)
	require.NoError(t, err)

	for _, req := range []model.Request{{}, {Topic: "career"}, {Mood: "happy"}, {Topic: " ", Mood: "happy"}} {
		_, err := svc.Generate(context.Background(), req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidInput), "request %+v", req)
	}
	assert.Equal(t, 0, provider.Calls())
}

func TestGenerateProviderFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	svc := newTestService(t, func(context.Context, []*schema.Message) (*schema.Message, error) {
		return nil, cause
	})

	req := model.Request{Topic: "health", Mood: "hopeful"}
	resp, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrProviderFailure))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, model.Response{}, resp)
	assert.Equal(t, model.Request{Topic: "health", Mood: "hopeful"}, req)
}

func TestGenerateTimeout(t *testing.T) {
	svc := newTestService(t, func(ctx context.Context, _ []*schema.Message) (*schema.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := svc.Generate(context.Background(), model.Request{Topic: "sleep", Mood: "calm"})
	require.Error(t, err)
	assert.Equal(t, model.KindProviderFailure, model.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, model.AsError(err).HTTPStatus())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 20*time.Millisecond, svc.Timeout())
}

func TestGenerateMissingOutput(t *testing.T) {
	replies := []string{
		`{"affirmation": null}`,
		`{"message": "hello"}`,
		`{"affirmation": 5}`,
		`{"affirmation": "   "}`,
		"",
		"   \n",
		`[{"affirmation": "I am listed."}]`,
		`{"affirmation": "I am cut o`,
		"```json\n{\"note\": \"none\"}\n```",
	}
	for _, reply := range replies {
		t.Run(fmt.Sprintf("%q", reply), func(t *testing.T) {
			svc := newTestService(t, replyWith(reply))
			resp, err := svc.Generate(context.Background(), model.Request{Topic: "family", Mood: "grateful"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrMissingOutput))
			assert.Empty(t, resp.Affirmation)
		})
	}
}

func TestGenerateCoercesReplies(t *testing.T) {
	cases := []struct {
		reply string
		want  string
	}{
		{reply: `{"affirmation": "I am capable."}`, want: "I am capable."},
		{reply: "```json\n{\"affirmation\": \"I trust myself.\"}\n```", want: "I trust myself."},
		{reply: `Affirmation: "I bring light to every room."`, want: "I bring light to every room."},
		{reply: "I deserve rest {and} joy.", want: "I deserve rest {and} joy."},
		{reply: "  “My voice matters.”  ", want: "My voice matters."},
		{reply: "I deserve rest {} and joy.", want: "I deserve rest {} and joy."},
		{reply: `{"affirmation": "I choose peace."} {"affirmation": "second"}`, want: "I choose peace."},
		{reply: `Here it is: {"affirmation": "I am resilient."} Enjoy!`, want: "I am resilient."},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			svc := newTestService(t, replyWith(tc.reply))
			resp, err := svc.Generate(context.Background(), model.Request{Topic: "self", Mood: "warm"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.Affirmation)
		})
	}
}

func TestGenerateConcurrentCallsAreIndependent(t *testing.T) {
	svc := newTestService(t, func(_ context.Context, input []*schema.Message) (*schema.Message, error) {
		user := input[len(input)-1].Content
		idx := strings.Index(user, "topic: ")
		topic := strings.SplitN(user[idx+len("topic: "):], "\n", 2)[0]
		return schema.AssistantMessage(fmt.Sprintf(`{"affirmation": "I shine in %s."}`, topic), nil), nil
	})

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Generate(context.Background(), model.Request{Topic: fmt.Sprintf("topic-%d", i), Mood: "bright"})
			results[i] = resp.Affirmation
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("I shine in topic-%d.", i), results[i])
	}
}

func TestRenderPrompt(t *testing.T) {
	svc := newTestService(t, replyWith("unused"))

	msgs, err := svc.RenderPrompt(context.Background(), model.Request{Topic: "career", Mood: "confident"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, outputContract, msgs[0].Content)
	assert.Equal(t, `You are an AI assistant designed to generate personalized affirmations.

Based on the user's input, create an affirmation that is:
- Relevant to the specified topic: career
- Evokes the desired mood or feeling: confident

The affirmation should be positive, encouraging, and empowering.

Affirmation:`, msgs[1].Content)

	_, err = svc.RenderPrompt(context.Background(), model.Request{Topic: "career"})
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestParseOutputNilMessage(t *testing.T) {
	_, err := parseOutput(nil)
	assert.True(t, errors.Is(err, model.ErrMissingOutput))
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(context.Background(), nil)
	assert.Error(t, err)
}
