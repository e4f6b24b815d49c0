package cli

import (
	"fmt"

	"github.com/xealabs/xea-oracle/internal/aggregate"
	"github.com/xealabs/xea-oracle/internal/fanout"
	"github.com/xealabs/xea-oracle/internal/hub"
	"github.com/xealabs/xea-oracle/internal/miner"
	"github.com/xealabs/xea-oracle/internal/model"
	"github.com/xealabs/xea-oracle/internal/store"
	"github.com/xealabs/xea-oracle/internal/validate"
)

// services bundles the wired core components for commands to share
type services struct {
	config       *model.Config
	store        *store.Store
	hub          *hub.Hub
	orchestrator *validate.Orchestrator
	engine       *aggregate.Engine
}

// buildServices constructs the core from configuration: the
// dual-backend store, the notification hub, the miner pool, the
// orchestrator and the aggregation engine.
func buildServices(cfg *model.Config) (*services, error) {
	var primary store.Primary
	switch cfg.Store.Primary {
	case "", "memory":
		primary = store.NewMemoryPrimary(cfg.Store.PrimaryTTL)
	case "redis":
		rp, err := store.NewRedisPrimary(cfg.Store.RedisURL, cfg.Store.PrimaryTTL)
		if err != nil {
			return nil, fmt.Errorf("redis primary: %w", err)
		}
		primary = rp
	default:
		return nil, fmt.Errorf("unknown primary store backend: %s", cfg.Store.Primary)
	}

	st := store.New(primary, store.NewDiskStore(cfg.Store.Dir))
	h := hub.New(cfg.Server.KeepaliveInterval)

	pool, err := miner.NewPool(cfg.Miners, cfg.LLM, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("miner pool: %w", err)
	}
	validators := make([]fanout.Validator, len(pool))
	for i, m := range pool {
		validators[i] = m
	}

	return &services{
		config:       cfg,
		store:        st,
		hub:          h,
		orchestrator: validate.New(st, h, validators, cfg.Validation),
		engine:       aggregate.NewEngine(st),
	}, nil
}
