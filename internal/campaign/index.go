package campaign

import (
	"fmt"
	"strings"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// AliasIndex maps lowercase aliases to creator handles. An index belongs to
// exactly one configuration generation and is never mutated after build;
// reloads publish a whole new index through the registry.
type AliasIndex struct {
	byAlias map[string]string
	entries []AliasEntry
}

// AliasEntry pairs one indexed alias with its creator.
type AliasEntry struct {
	Alias     string
	CreatorID string
}

// BuildAliasIndex constructs the lookup from creator records. Every alias is
// keyed lowercase; multi-word aliases additionally get hyphen-joined and
// collapsed single-token forms, and every form gets an "@" variant so
// mentions resolve without stripping.
func BuildAliasIndex(creators []domain.CreatorRecord) (*AliasIndex, error) {
	if len(creators) == 0 {
		return nil, fmt.Errorf("alias index: no creators")
	}

	idx := &AliasIndex{byAlias: make(map[string]string)}
	add := func(alias, creatorID string) {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			return
		}
		if _, exists := idx.byAlias[alias]; !exists {
			idx.byAlias[alias] = creatorID
			idx.entries = append(idx.entries, AliasEntry{Alias: alias, CreatorID: creatorID})
		}
		mention := "@" + strings.TrimPrefix(alias, "@")
		if _, exists := idx.byAlias[mention]; !exists {
			idx.byAlias[mention] = creatorID
		}
	}

	for _, creator := range creators {
		add(creator.CreatorID, creator.CreatorID)
		for _, alias := range creator.Aliases {
			add(alias, creator.CreatorID)
			if strings.Contains(alias, " ") {
				add(strings.ReplaceAll(alias, " ", "-"), creator.CreatorID)
				add(strings.ReplaceAll(alias, " ", ""), creator.CreatorID)
			}
		}
	}

	if len(idx.entries) == 0 {
		return nil, fmt.Errorf("alias index: empty after build")
	}
	return idx, nil
}

// LookupExact resolves a single token to a creator handle.
func (i *AliasIndex) LookupExact(token string) (string, bool) {
	creator, ok := i.byAlias[strings.ToLower(token)]
	return creator, ok
}

// Entries returns the indexed aliases for similarity scans. Callers must not
// modify the returned slice.
func (i *AliasIndex) Entries() []AliasEntry {
	return i.entries
}

// Len reports how many distinct aliases are indexed.
func (i *AliasIndex) Len() int {
	return len(i.entries)
}
