package miner

import (
	"context"
	"fmt"

	"github.com/xealabs/xea-oracle/internal/model"
)

// Miner validates a single claim against its proposal context and
// returns a verdict with quality scores, or fails. Implementations may
// block; they must honor ctx cancellation.
type Miner interface {
	ID() string
	ValidateClaim(ctx context.Context, claim model.Claim, proposalContext string) (*model.MinerResponse, error)
}

// NewPool builds a miner pool from configuration. Provider "mock"
// yields a deterministic local pool; "remote" wraps the configured
// endpoints; "llm" asks a chat model directly.
func NewPool(cfg model.MinersConfig, llmCfg model.LLMConfig, httpCfg model.HTTPConfig) ([]Miner, error) {
	switch cfg.Provider {
	case "", "mock":
		return NewMockPool(cfg.Count, cfg.Seed), nil

	case "remote":
		if len(cfg.Endpoints) == 0 {
			return nil, fmt.Errorf("remote miner provider requires endpoints")
		}
		limiter := NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
		miners := make([]Miner, 0, len(cfg.Endpoints))
		for i, endpoint := range cfg.Endpoints {
			miners = append(miners, NewRemoteMiner(
				fmt.Sprintf("remote_miner_%03d", i),
				endpoint,
				httpCfg,
				limiter,
			))
		}
		return miners, nil

	case "llm":
		if cfg.Count <= 0 {
			cfg.Count = 1
		}
		miners := make([]Miner, 0, cfg.Count)
		for i := 0; i < cfg.Count; i++ {
			m, err := NewLLMMiner(fmt.Sprintf("llm_miner_%03d", i), llmCfg)
			if err != nil {
				return nil, fmt.Errorf("create llm miner: %w", err)
			}
			miners = append(miners, m)
		}
		return miners, nil
	}
	return nil, fmt.Errorf("unknown miner provider: %s", cfg.Provider)
}
