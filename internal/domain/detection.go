package domain

// DetectionMethod enumerates how a creator was (or was not) identified.
type DetectionMethod string

const (
	DetectionExact DetectionMethod = "exact"
	DetectionFuzzy DetectionMethod = "fuzzy"
	DetectionLLM   DetectionMethod = "llm"
	DetectionNone  DetectionMethod = "none"
)

// DetectionResult is the outcome of the tiered detector. CreatorID is empty
// exactly when Method is DetectionNone or an LLM attempt ran and failed
// cleanly (Method DetectionLLM with Confidence 0).
type DetectionResult struct {
	CreatorID  string
	Method     DetectionMethod
	Confidence float64
}

// Found reports whether a creator was identified.
func (r DetectionResult) Found() bool {
	return r.CreatorID != ""
}
