package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/campaign"
	"github.com/creatorlane/discount-agent/internal/domain"
)

// Aliases shorter than this are excluded from similarity scoring; local
// alignment normalizes by the shorter string, so tiny aliases would match
// almost anything.
const minFuzzyAliasLen = 4

// LLMOutcome summarizes one bounded fallback run. Attempts is zero when the
// fallback never executed.
type LLMOutcome struct {
	CreatorID  string
	Confidence float64
	Attempts   int
	Reason     string
}

// LLMFallback is the LLM collaborator contract: classify text against an
// allow-list of creator handles. Implementations must be bounded (attempt
// cap and time budget) and must never return a handle outside the list.
type LLMFallback interface {
	DetectCreator(ctx context.Context, text string, allowedIDs []string) LLMOutcome
}

// Trace accumulates a human-readable step log for explain mode. A nil
// Trace discards everything.
type Trace struct {
	steps []string
}

// Add appends a formatted step.
func (t *Trace) Add(format string, args ...any) {
	if t == nil {
		return
	}
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}

// Steps returns the recorded log.
func (t *Trace) Steps() []string {
	if t == nil {
		return nil
	}
	return t.steps
}

// Detector resolves creators in three strictly ordered tiers: exact alias
// lookup, similarity scoring, then a bounded LLM fallback. The first tier
// to produce a creator wins.
type Detector struct {
	fallback LLMFallback
	sim      *metrics.SmithWatermanGotoh
	logger   *zap.Logger
}

// NewDetector builds a detector. fallback may be nil when the LLM tier is
// not configured.
func NewDetector(fallback LLMFallback, logger *zap.Logger) *Detector {
	return &Detector{fallback: fallback, sim: newSimilarity(), logger: logger}
}

// newSimilarity configures Smith-Waterman-Gotoh local alignment, which
// scores the best-matching region of the message against each alias and
// normalizes by the shorter string, so an alias embedded in a longer
// message still scores near 1.
func newSimilarity() *metrics.SmithWatermanGotoh {
	swg := metrics.NewSmithWatermanGotoh()
	swg.CaseSensitive = false
	swg.GapPenalty = -0.5
	swg.Substitution = metrics.MatchMismatch{Match: 1, Mismatch: -2}
	return swg
}

// Detect runs the tiered resolution over normalized text. inScope gates the
// LLM tier only; the exact and fuzzy tiers always run. The only error
// condition is a corrupt snapshot (empty alias index), which signals a
// fatal setup problem rather than a per-request failure.
func (d *Detector) Detect(ctx context.Context, text string, snap *campaign.Snapshot, inScope bool, trace *Trace) (domain.DetectionResult, error) {
	if snap == nil || snap.Index == nil || snap.Index.Len() == 0 {
		return domain.DetectionResult{}, fmt.Errorf("detector: empty alias index")
	}

	if creator, ok := d.exactMatch(text, snap.Index); ok {
		trace.Add("exact: %s", creator)
		d.logger.Debug("exact alias match", zap.String("creator", creator))
		return domain.DetectionResult{CreatorID: creator, Method: domain.DetectionExact, Confidence: 1.0}, nil
	}

	if snap.Flags.EnableFuzzyMatching {
		if creator, score, ok := d.fuzzyMatch(text, snap); ok {
			trace.Add("fuzzy: %s (%.2f)", creator, score)
			d.logger.Debug("fuzzy alias match", zap.String("creator", creator), zap.Float64("score", score))
			return domain.DetectionResult{CreatorID: creator, Method: domain.DetectionFuzzy, Confidence: score}, nil
		}
		trace.Add("fuzzy: none")
	}

	if d.fallback != nil && snap.Flags.EnableLLMFallback && inScope {
		outcome := d.fallback.DetectCreator(ctx, text, snap.CreatorIDs())
		if outcome.CreatorID != "" {
			trace.Add("llm: %s (%.2f), attempts=%d", outcome.CreatorID, outcome.Confidence, outcome.Attempts)
			return domain.DetectionResult{
				CreatorID:  outcome.CreatorID,
				Method:     domain.DetectionLLM,
				Confidence: clamp01(outcome.Confidence),
			}, nil
		}
		if outcome.Attempts > 0 {
			// The fallback ran and concluded cleanly without a creator:
			// report the method so callers can distinguish "LLM said no"
			// from "LLM never consulted".
			trace.Add("llm: none (reason=%s)", outcome.Reason)
			return domain.DetectionResult{Method: domain.DetectionLLM, Confidence: 0}, nil
		}
		trace.Add("llm: skipped (%s)", outcome.Reason)
	}

	trace.Add("detect: none")
	return domain.DetectionResult{Method: domain.DetectionNone, Confidence: 0}, nil
}

// exactMatch tests each token, each token with its mention marker removed,
// and adjacent token pairs (so multi-word aliases match whether written
// spaced, hyphenated, or collapsed).
func (d *Detector) exactMatch(text string, index *campaign.AliasIndex) (string, bool) {
	tokens := Tokenize(text)
	for _, token := range tokens {
		if creator, ok := index.LookupExact(token); ok {
			return creator, true
		}
		if trimmed := strings.TrimPrefix(token, "@"); trimmed != token {
			if creator, ok := index.LookupExact(trimmed); ok {
				return creator, true
			}
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		pair := tokens[i] + " " + tokens[i+1]
		if creator, ok := index.LookupExact(pair); ok {
			return creator, true
		}
	}
	return "", false
}

// fuzzyMatch scores message substrings against every indexed alias and
// accepts the best score at or above the configured threshold. Equal scores
// prefer the longer alias.
func (d *Detector) fuzzyMatch(text string, snap *campaign.Snapshot) (string, float64, bool) {
	creator, _, score := bestFuzzyAlias(text, snap.Index.Entries(), d.sim)
	if creator == "" || score < snap.FuzzyAccept {
		return "", 0, false
	}
	return creator, clamp01(score), true
}

// fuzzyCandidates lists the substrings scored against aliases: each token
// and each adjacent token pair, mention markers stripped. Scoring windows
// rather than the whole message keeps a misspelled handle from drowning in
// surrounding words.
func fuzzyCandidates(text string) []string {
	tokens := Tokenize(text)
	out := make([]string, 0, 2*len(tokens))
	for _, token := range tokens {
		out = append(out, strings.TrimPrefix(token, "@"))
	}
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, strings.TrimPrefix(tokens[i], "@")+" "+tokens[i+1])
	}
	return out
}

// bestFuzzyAlias runs the candidate-by-alias similarity scan shared by the
// detector's fuzzy tier and the intent classifier.
func bestFuzzyAlias(text string, entries []campaign.AliasEntry, sim *metrics.SmithWatermanGotoh) (creator, alias string, score float64) {
	candidates := fuzzyCandidates(text)
	for _, entry := range entries {
		if len(entry.Alias) < minFuzzyAliasLen {
			continue
		}
		for _, cand := range candidates {
			if len(cand) < minFuzzyAliasLen {
				continue
			}
			s := strutil.Similarity(cand, entry.Alias, sim)
			if s > score || (s == score && len(entry.Alias) > len(alias)) {
				score = s
				alias = entry.Alias
				creator = entry.CreatorID
			}
		}
	}
	return creator, alias, score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
