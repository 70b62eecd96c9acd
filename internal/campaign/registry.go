package campaign

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Registry owns the current campaign snapshot and swaps it atomically on
// reload. Readers always see either the previous or the new generation,
// never a partially built one.
type Registry struct {
	current       atomic.Pointer[Snapshot]
	campaignPath  string
	templatesPath string
	logger        *zap.Logger
}

// NewRegistry performs the initial load. A failure here is fatal: the
// process must not serve without a valid campaign.
func NewRegistry(campaignPath, templatesPath string, logger *zap.Logger) (*Registry, error) {
	snap, err := Load(campaignPath, templatesPath)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		campaignPath:  campaignPath,
		templatesPath: templatesPath,
		logger:        logger,
	}
	r.current.Store(snap)
	logger.Info("campaign loaded",
		zap.Int("creators", len(snap.Creators)),
		zap.Int("aliases", snap.Index.Len()),
		zap.Float64("fuzzy_accept", snap.FuzzyAccept))
	return r, nil
}

// Current returns the active snapshot.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Reload re-reads the YAML files and publishes a new generation. On failure
// the previous snapshot stays active.
func (r *Registry) Reload() error {
	snap, err := Load(r.campaignPath, r.templatesPath)
	if err != nil {
		r.logger.Error("campaign reload rejected", zap.Error(err))
		return err
	}
	r.current.Store(snap)
	r.logger.Info("campaign reloaded",
		zap.Int("creators", len(snap.Creators)),
		zap.Int("aliases", snap.Index.Len()))
	return nil
}
