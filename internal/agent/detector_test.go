package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/domain"
)

// fakeFallback is a scripted LLMFallback.
type fakeFallback struct {
	outcome LLMOutcome
	calls   int
	gotIDs  []string
}

func (f *fakeFallback) DetectCreator(_ context.Context, _ string, allowedIDs []string) LLMOutcome {
	f.calls++
	f.gotIDs = allowedIDs
	return f.outcome
}

func TestDetectExact(t *testing.T) {
	snap := testSnapshot(t)
	detector := NewDetector(nil, zap.NewNop())

	cases := []struct {
		text    string
		creator string
	}{
		{"use code from mkbhd", "mkbhd"},
		{"@marques sent me", "mkbhd"},
		{"marques brownlee discount please", "mkbhd"},
		{"marques-brownlee discount please", "mkbhd"},
		{"marquesbrownlee discount please", "mkbhd"},
		{"casey neistat story", "casey_neistat"},
		{"lily told me", "lily_singh"},
	}

	for _, tc := range cases {
		result, err := detector.Detect(context.Background(), Normalize(tc.text), snap, true, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.creator, result.CreatorID, "text: %q", tc.text)
		assert.Equal(t, domain.DetectionExact, result.Method, "text: %q", tc.text)
		assert.Equal(t, 1.0, result.Confidence)
	}
}

func TestDetectExactBeatsFuzzy(t *testing.T) {
	// An exact token hit must short-circuit even though the text would also
	// clear the fuzzy threshold.
	snap := testSnapshot(t)
	detector := NewDetector(nil, zap.NewNop())

	result, err := detector.Detect(context.Background(), "mkbhd marqes discount", snap, true, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DetectionExact, result.Method)
	assert.Equal(t, "mkbhd", result.CreatorID)
}

func TestDetectFuzzyMisspelling(t *testing.T) {
	snap := testSnapshot(t)
	detector := NewDetector(nil, zap.NewNop())

	result, err := detector.Detect(context.Background(), "marqes brwnli promo", snap, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "mkbhd", result.CreatorID)
	assert.Equal(t, domain.DetectionFuzzy, result.Method)
	assert.GreaterOrEqual(t, result.Confidence, snap.FuzzyAccept)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestDetectFuzzyRejectsUnrelatedText(t *testing.T) {
	snap := testSnapshot(t)
	detector := NewDetector(nil, zap.NewNop())

	result, err := detector.Detect(context.Background(), "i want a discount for my order", snap, true, nil)
	require.NoError(t, err)
	assert.Empty(t, result.CreatorID)
	assert.Equal(t, domain.DetectionNone, result.Method)
}

func TestDetectFuzzyDisabled(t *testing.T) {
	snap := testSnapshot(t)
	snap.Flags.EnableFuzzyMatching = false
	detector := NewDetector(nil, zap.NewNop())

	result, err := detector.Detect(context.Background(), "marqes brwnli promo", snap, true, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DetectionNone, result.Method)
}

func TestDetectLLMSuccess(t *testing.T) {
	snap := testSnapshot(t)
	fallback := &fakeFallback{outcome: LLMOutcome{CreatorID: "casey_neistat", Confidence: 0.8, Attempts: 1}}
	detector := NewDetector(fallback, zap.NewNop())

	result, err := detector.Detect(context.Background(), "the skateboard vlogger from nyc", snap, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "casey_neistat", result.CreatorID)
	assert.Equal(t, domain.DetectionLLM, result.Method)
	assert.Equal(t, 0.8, result.Confidence)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, snap.CreatorIDs(), fallback.gotIDs)
}

func TestDetectLLMExhausted(t *testing.T) {
	// The fallback ran and failed cleanly: method reports llm with zero
	// confidence so callers can tell it was consulted.
	snap := testSnapshot(t)
	fallback := &fakeFallback{outcome: LLMOutcome{Attempts: 2, Reason: "retry limit exceeded"}}
	detector := NewDetector(fallback, zap.NewNop())

	result, err := detector.Detect(context.Background(), "the skateboard vlogger from nyc", snap, true, nil)
	require.NoError(t, err)
	assert.Empty(t, result.CreatorID)
	assert.Equal(t, domain.DetectionLLM, result.Method)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestDetectLLMGates(t *testing.T) {
	snap := testSnapshot(t)
	text := "the skateboard vlogger from nyc"

	t.Run("skipped when out of scope", func(t *testing.T) {
		fallback := &fakeFallback{outcome: LLMOutcome{CreatorID: "casey_neistat", Confidence: 0.8, Attempts: 1}}
		detector := NewDetector(fallback, zap.NewNop())
		result, err := detector.Detect(context.Background(), text, snap, false, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DetectionNone, result.Method)
		assert.Zero(t, fallback.calls)
	})

	t.Run("skipped when flag disabled", func(t *testing.T) {
		disabled := testSnapshot(t)
		disabled.Flags.EnableLLMFallback = false
		fallback := &fakeFallback{outcome: LLMOutcome{CreatorID: "casey_neistat", Confidence: 0.8, Attempts: 1}}
		detector := NewDetector(fallback, zap.NewNop())
		result, err := detector.Detect(context.Background(), text, disabled, true, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DetectionNone, result.Method)
		assert.Zero(t, fallback.calls)
	})

	t.Run("skipped when no fallback configured", func(t *testing.T) {
		detector := NewDetector(nil, zap.NewNop())
		result, err := detector.Detect(context.Background(), text, snap, true, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DetectionNone, result.Method)
	})
}

func TestDetectEmptyIndex(t *testing.T) {
	detector := NewDetector(nil, zap.NewNop())
	_, err := detector.Detect(context.Background(), "anything", &campaign.Snapshot{}, true, nil)
	assert.Error(t, err)
}

func TestDetectTrace(t *testing.T) {
	snap := testSnapshot(t)
	detector := NewDetector(nil, zap.NewNop())

	trace := &Trace{}
	_, err := detector.Detect(context.Background(), "marqes brwnli promo", snap, true, trace)
	require.NoError(t, err)
	assert.NotEmpty(t, trace.Steps())
}

func TestTraceNilSafe(t *testing.T) {
	var trace *Trace
	trace.Add("ignored %d", 1)
	assert.Nil(t, trace.Steps())
}
