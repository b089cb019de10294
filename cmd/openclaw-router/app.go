package main

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/CoworkedShawn/openclaw-skills/internal/profile"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/router"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/session"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/skills"
)

// app wires the router service from a profile.
type app struct {
	profile  *profile.Profile
	logger   *slog.Logger
	config   *router.ConfigStore
	sessions session.Store
	registry skills.Registry
	service  *router.Service

	closers []func()
}

func (o *rootOptions) newApp() (*app, error) {
	p, err := o.profile()
	if err != nil {
		return nil, err
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	config, err := router.NewConfigStore(p.CatalogPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load routing catalog")
	}

	registry, err := buildRegistry(p, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		profile:  p,
		logger:   logger,
		config:   config,
		registry: registry,
	}
	if p.SessionCapacity > 0 {
		store := session.NewLRUStore(session.LRUStoreConfig{
			Capacity: p.SessionCapacity,
			IdleTTL:  p.SessionIdleTimeout,
		})
		a.sessions = store
		a.closers = append(a.closers, store.Close)
	} else {
		a.sessions = session.NewMemoryStore()
	}

	a.service = router.NewService(router.Config{
		ConfigStore: config,
		Sessions:    a.sessions,
		Registry:    registry,
		Logger:      logger,
	})

	snap := config.Snapshot()
	logger.Debug("router initialized",
		"catalog", snap.Source,
		"version", snap.Version,
		"intents", snap.Catalog.Len(),
		"skills", len(registry.Names()))
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildRegistry merges statically configured skills with SKILL.md discovery.
// With neither configured every target is treated as available.
func buildRegistry(p *profile.Profile, logger *slog.Logger) (skills.Registry, error) {
	if len(p.AvailableSkills) == 0 && len(p.SkillDirs) == 0 {
		logger.Warn("no skills configured; treating every target as available")
		return skills.AllowAll(), nil
	}

	registry := skills.NewStaticRegistry(p.AvailableSkills...)
	if len(p.SkillDirs) > 0 {
		discovery, err := skills.NewDiscovery(skills.WithSkillDirs(p.SkillDirs...))
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize skill discovery")
		}
		for _, skill := range discovery.Discover() {
			registry.Add(skill)
		}
	}
	if registry.Len() == 0 {
		logger.Warn("no skills found", "dirs", p.SkillDirs)
	}
	return registry, nil
}
