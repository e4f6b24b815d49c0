package miner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xealabs/xea-oracle/internal/aggregate"
	"github.com/xealabs/xea-oracle/internal/model"
	"github.com/xealabs/xea-oracle/internal/util"
)

// RemoteMiner sends claims to a real miner endpoint over HTTP. The
// endpoint is expected to expose POST /validate_claim accepting
// {claim, proposal_context} and returning a MinerResponse body.
type RemoteMiner struct {
	id       string
	endpoint string
	client   *http.Client
	limiter  *Limiter
}

type validateRequest struct {
	Claim           model.Claim `json:"claim"`
	ProposalContext string      `json:"proposal_context"`
}

// NewRemoteMiner creates a remote miner client
func NewRemoteMiner(id, endpoint string, httpCfg model.HTTPConfig, limiter *Limiter) *RemoteMiner {
	timeout := httpCfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteMiner{
		id:       id,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		limiter: limiter,
	}
}

// ID returns the miner's identifier
func (m *RemoteMiner) ID() string {
	return m.id
}

// ValidateClaim posts the claim to the miner endpoint and decodes its
// verdict. The response's composite score is recomputed locally; the
// wire value is never trusted.
func (m *RemoteMiner) ValidateClaim(ctx context.Context, claim model.Claim, proposalContext string) (*model.MinerResponse, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx, m.endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	payload, err := json.Marshal(validateRequest{
		Claim:           claim,
		ProposalContext: proposalContext,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.endpoint+"/validate_claim", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("miner %s: %w", m.id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("miner %s: unexpected status %d", m.id, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response model.MinerResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !response.Verdict.IsValid() {
		return nil, fmt.Errorf("miner %s: invalid verdict %q", m.id, response.Verdict)
	}

	response.MinerID = m.id
	response.ClaimID = claim.ID
	response.Scores.Composite = aggregate.PoUWComposite(response.Scores)
	return &response, nil
}
