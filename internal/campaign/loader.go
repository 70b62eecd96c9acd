package campaign

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// DefaultFuzzyAccept is used when the campaign file omits a threshold.
const DefaultFuzzyAccept = 0.82

type campaignFile struct {
	Creators map[string]struct {
		Code    string   `yaml:"code"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"creators"`
	Thresholds struct {
		FuzzyAccept float64 `yaml:"fuzzy_accept"`
	} `yaml:"thresholds"`
	Flags struct {
		EnableFuzzyMatching *bool `yaml:"enable_fuzzy_matching"`
		EnableLLMFallback   *bool `yaml:"enable_llm_fallback"`
	} `yaml:"flags"`
}

type templatesFile struct {
	Replies map[string]string `yaml:"replies"`
}

// Templates holds the reply texts rendered back to users. IssueCode and
// ResendCode accept {creator_handle} and {discount_code} placeholders.
type Templates struct {
	IssueCode     string
	ResendCode    string
	AskCreator    string
	OutOfScope    string
	ErrorFallback string
}

// Flags toggle optional detection tiers.
type Flags struct {
	EnableFuzzyMatching bool
	EnableLLMFallback   bool
}

// Snapshot is one immutable generation of campaign configuration: creator
// records, the alias index built from them, thresholds, flags, and reply
// templates. In-flight requests hold a snapshot and never observe a reload.
type Snapshot struct {
	Creators    []domain.CreatorRecord
	Index       *AliasIndex
	FuzzyAccept float64
	Flags       Flags
	Templates   Templates
}

// CreatorByID returns the record for a creator handle.
func (s *Snapshot) CreatorByID(id string) (domain.CreatorRecord, bool) {
	for _, c := range s.Creators {
		if c.CreatorID == id {
			return c, true
		}
	}
	return domain.CreatorRecord{}, false
}

// CreatorIDs returns the allow-list of creator handles, sorted.
func (s *Snapshot) CreatorIDs() []string {
	ids := make([]string, 0, len(s.Creators))
	for _, c := range s.Creators {
		ids = append(ids, c.CreatorID)
	}
	sort.Strings(ids)
	return ids
}

// Load parses and validates the campaign and template files and builds a
// fresh snapshot. A validation failure here is a fatal configuration error:
// the caller must refuse to serve until corrected.
func Load(campaignPath, templatesPath string) (*Snapshot, error) {
	raw, err := os.ReadFile(campaignPath)
	if err != nil {
		return nil, fmt.Errorf("read campaign config: %w", err)
	}
	var cf campaignFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse campaign config: %w", err)
	}

	if len(cf.Creators) == 0 {
		return nil, fmt.Errorf("campaign config %s: no creators defined", campaignPath)
	}

	creators := make([]domain.CreatorRecord, 0, len(cf.Creators))
	for id, data := range cf.Creators {
		if strings.TrimSpace(data.Code) == "" {
			return nil, fmt.Errorf("campaign config: creator %q has no discount code", id)
		}
		if len(data.Aliases) == 0 {
			return nil, fmt.Errorf("campaign config: creator %q has no aliases", id)
		}
		creators = append(creators, domain.CreatorRecord{
			CreatorID: id,
			Code:      data.Code,
			Aliases:   data.Aliases,
		})
	}
	sort.Slice(creators, func(i, j int) bool { return creators[i].CreatorID < creators[j].CreatorID })

	index, err := BuildAliasIndex(creators)
	if err != nil {
		return nil, err
	}

	tmpl, err := loadTemplates(templatesPath)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Creators:    creators,
		Index:       index,
		FuzzyAccept: cf.Thresholds.FuzzyAccept,
		Flags: Flags{
			EnableFuzzyMatching: boolOrDefault(cf.Flags.EnableFuzzyMatching, true),
			EnableLLMFallback:   boolOrDefault(cf.Flags.EnableLLMFallback, true),
		},
		Templates: tmpl,
	}
	if snap.FuzzyAccept <= 0 || snap.FuzzyAccept > 1 {
		snap.FuzzyAccept = DefaultFuzzyAccept
	}
	return snap, nil
}

func loadTemplates(path string) (Templates, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, fmt.Errorf("read templates config: %w", err)
	}
	var tf templatesFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return Templates{}, fmt.Errorf("parse templates config: %w", err)
	}

	tmpl := Templates{
		IssueCode:     tf.Replies["issue_code"],
		ResendCode:    tf.Replies["resend_code"],
		AskCreator:    tf.Replies["ask_creator"],
		OutOfScope:    tf.Replies["out_of_scope"],
		ErrorFallback: tf.Replies["error_fallback"],
	}
	for key, val := range map[string]string{
		"issue_code":     tmpl.IssueCode,
		"resend_code":    tmpl.ResendCode,
		"ask_creator":    tmpl.AskCreator,
		"out_of_scope":   tmpl.OutOfScope,
		"error_fallback": tmpl.ErrorFallback,
	} {
		if strings.TrimSpace(val) == "" {
			return Templates{}, fmt.Errorf("templates config %s: missing reply %q", path, key)
		}
	}
	return tmpl, nil
}

// Render substitutes reply placeholders.
func Render(template, creatorHandle, discountCode string) string {
	r := strings.NewReplacer(
		"{creator_handle}", creatorHandle,
		"{discount_code}", discountCode,
	)
	return r.Replace(template)
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
