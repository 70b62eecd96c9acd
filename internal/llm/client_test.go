package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var allowed = []string{"casey_neistat", "lily_singh", "mkbhd"}

// fakeAPI replays scripted responses, one per call.
type fakeAPI struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	content string
	err     error
}

func (f *fakeAPI) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		return openai.ChatCompletionResponse{}, fmt.Errorf("unexpected call %d", i)
	}
	r := f.responses[i]
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: r.content}},
		},
	}, nil
}

func testClient(api completionAPI) *Client {
	return &Client{
		api:               api,
		model:             "test-model",
		maxAttempts:       2,
		perAttemptTimeout: time.Second,
		totalBudget:       2 * time.Second,
		logger:            zap.NewNop(),
	}
}

func TestDetectCreatorSuccess(t *testing.T) {
	api := &fakeAPI{responses: []fakeResponse{{content: `{"creator":"mkbhd"}`}}}
	outcome := testClient(api).DetectCreator(context.Background(), "marques video", allowed)

	assert.Equal(t, "mkbhd", outcome.CreatorID)
	assert.Equal(t, successConfidence, outcome.Confidence)
	assert.Equal(t, 1, outcome.Attempts)
}

func TestDetectCreatorNoneIsTerminal(t *testing.T) {
	api := &fakeAPI{responses: []fakeResponse{
		{content: `{"creator":"none"}`},
		{content: `{"creator":"mkbhd"}`},
	}}
	outcome := testClient(api).DetectCreator(context.Background(), "random text", allowed)

	assert.Empty(t, outcome.CreatorID)
	assert.Equal(t, 1, outcome.Attempts, "a parsed none must not be retried")
	assert.Equal(t, 1, api.calls)
}

func TestDetectCreatorRetriesThenSucceeds(t *testing.T) {
	api := &fakeAPI{responses: []fakeResponse{
		{err: fmt.Errorf("transient upstream error")},
		{content: `{"creator":"lily_singh"}`},
	}}
	outcome := testClient(api).DetectCreator(context.Background(), "lily video", allowed)

	assert.Equal(t, "lily_singh", outcome.CreatorID)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestDetectCreatorExhaustsAttempts(t *testing.T) {
	api := &fakeAPI{responses: []fakeResponse{
		{err: fmt.Errorf("boom")},
		{content: `not even json`},
	}}
	outcome := testClient(api).DetectCreator(context.Background(), "whatever", allowed)

	assert.Empty(t, outcome.CreatorID)
	assert.Equal(t, 2, outcome.Attempts)
	assert.NotEmpty(t, outcome.Reason)
	assert.Zero(t, outcome.Confidence)
}

func TestDetectCreatorRejectsOffListHandle(t *testing.T) {
	// A handle outside the allow-list is an attempt failure, never a result.
	api := &fakeAPI{responses: []fakeResponse{
		{content: `{"creator":"pewdiepie"}`},
		{content: `{"creator":"pewdiepie"}`},
	}}
	outcome := testClient(api).DetectCreator(context.Background(), "whatever", allowed)

	assert.Empty(t, outcome.CreatorID)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestValidateResponse(t *testing.T) {
	cases := []struct {
		name        string
		raw         string
		wantCreator string
		wantNone    bool
		wantErr     bool
	}{
		{"allowed handle", `{"creator":"mkbhd"}`, "mkbhd", false, false},
		{"none", `{"creator":"none"}`, "", true, false},
		{"off list", `{"creator":"pewdiepie"}`, "", false, true},
		{"garbage", `mkbhd`, "", false, true},
		{"empty object", `{}`, "", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			creator, terminal, err := validateResponse(tc.raw, allowed)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.wantCreator, creator)
			assert.Equal(t, tc.wantNone, terminal)
		})
	}
}

func TestNewClientAppliesDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "key", Model: "m"}, zap.NewNop())
	assert.Equal(t, 2, client.maxAttempts)
	assert.Equal(t, 4*time.Second, client.perAttemptTimeout)
	assert.Equal(t, 8*time.Second, client.totalBudget)
}
