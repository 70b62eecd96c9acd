package domain

// CreatorRecord describes one campaign creator: a unique handle, the
// discount code minted for them, and the text aliases that identify
// mentions of them. Records are read-only at request time; a configuration
// reload publishes a fresh set.
type CreatorRecord struct {
	CreatorID string
	Code      string
	Aliases   []string
}
