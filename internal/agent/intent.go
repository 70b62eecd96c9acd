package agent

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/campaign"
)

// Vocabulary signalling a discount request.
var discountKeywords = []string{
	"discount", "code", "coupon", "promo", "creator", "sent me", "story", "from @",
}

// Greeting vocabulary that marks small talk as out-of-scope unless a
// creator signal rescues it. Phrases are in normalized form (apostrophes
// fold to spaces before classification).
var greetingPhrases = []string{
	"how are you", "what s up", "good morning", "good evening",
	"thank you", "how s it going",
}

var greetingWords = []string{
	"hello", "hi", "hey", "sup", "yo", "thanks", "bye", "goodbye", "greetings",
}

var fromMentionRE = regexp.MustCompile(`\bfrom\s+@?[a-z0-9_.]{3,}\b`)

// Classifier decides whether a message is in scope for creator detection at
// all. It is deliberately conservative: missing a real request costs more
// than running the cheap exact/fuzzy tiers on a borderline message.
type Classifier struct {
	sim    *metrics.SmithWatermanGotoh
	logger *zap.Logger
}

// NewClassifier builds the intent classifier.
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{sim: newSimilarity(), logger: logger}
}

// InScope classifies normalized text against the active campaign snapshot.
func (c *Classifier) InScope(text string, snap *campaign.Snapshot) bool {
	greetings := countContained(text, greetingPhrases) + countTokens(text, greetingWords)
	keywords := countContained(text, discountKeywords)
	fromMention := fromMentionRE.MatchString(text)
	aliasToken := containsAliasToken(text, snap.Index)

	_, _, bestAlias := bestFuzzyAlias(text, snap.Index.Entries(), c.sim)

	if greetings >= 1 && keywords == 0 {
		if !fromMention && bestAlias < snap.FuzzyAccept && !aliasToken {
			c.logger.Debug("intent out_of_scope: greeting without creator signal", zap.String("text", text))
			return false
		}
	}

	if keywords > 0 || aliasToken || fromMention {
		return true
	}
	if bestAlias >= snap.FuzzyAccept {
		c.logger.Debug("intent fuzzy accept", zap.String("text", text), zap.Float64("score", bestAlias))
		return true
	}

	c.logger.Debug("intent unknown: defaulting to out_of_scope", zap.String("text", text))
	return false
}

func countTokens(text string, words []string) int {
	count := 0
	tokens := Tokenize(text)
	for _, w := range words {
		for _, token := range tokens {
			if token == w {
				count++
				break
			}
		}
	}
	return count
}

func countContained(text string, vocab []string) int {
	count := 0
	for _, kw := range vocab {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func containsAliasToken(text string, index *campaign.AliasIndex) bool {
	for _, token := range Tokenize(text) {
		if _, ok := index.LookupExact(token); ok {
			return true
		}
		if _, ok := index.LookupExact(strings.TrimPrefix(token, "@")); ok {
			return true
		}
	}
	return false
}
