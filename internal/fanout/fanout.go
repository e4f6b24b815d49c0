package fanout

import (
	"context"
	"time"

	"github.com/xealabs/xea-oracle/internal/model"
)

// Validator is the miner capability the coordinator races: given a
// claim and proposal context, return a verdict with quality scores or
// fail. Implemented by the mock pool, remote miners and the LLM miner.
type Validator interface {
	ID() string
	ValidateClaim(ctx context.Context, claim model.Claim, proposalContext string) (*model.MinerResponse, error)
}

// Sink observes each collected response as it arrives, before the race
// resolves. The orchestrator uses it to persist and broadcast partial
// progress. A nil sink is allowed.
type Sink func(resp model.MinerResponse)

// tickInterval is how often the stopping conditions are re-evaluated
// independently of miner completions
const tickInterval = 100 * time.Millisecond

type result struct {
	resp *model.MinerResponse
	err  error
}

// Collect dispatches one concurrent validation request per miner and
// races the completions against two stopping conditions: quorum
// responses collected, or the timeout elapsed. Whichever fires first,
// the remaining miner tasks are cancelled and their eventual results
// discarded. Failed miners count toward neither condition. Zero miners
// returns an empty list immediately.
//
// A quorum larger than len(miners) can never be satisfied by count; the
// timeout then always ends the race. That is a misconfiguration, not an
// error.
func Collect(
	ctx context.Context,
	claim model.Claim,
	proposalContext string,
	miners []Validator,
	quorum int,
	timeout time.Duration,
	sink Sink,
) []model.MinerResponse {
	responses := make([]model.MinerResponse, 0, len(miners))
	if len(miners) == 0 {
		return responses
	}

	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered to len(miners) so stragglers can always complete their
	// send and exit after cancellation.
	results := make(chan result, len(miners))
	for _, m := range miners {
		go func(m Validator) {
			resp, err := m.ValidateClaim(raceCtx, claim, proposalContext)
			results <- result{resp: resp, err: err}
		}(m)
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(timeout)
	completed := 0
	for completed < len(miners) {
		select {
		case res := <-results:
			completed++
			if res.err != nil || res.resp == nil {
				// Individual miner failures are absorbed here; they
				// never fail the claim or the job.
				continue
			}
			responses = append(responses, *res.resp)
			if sink != nil {
				sink(*res.resp)
			}
			if len(responses) >= quorum {
				return responses
			}
		case <-ticker.C:
			if len(responses) >= quorum || time.Now().After(deadline) {
				return responses
			}
		case <-raceCtx.Done():
			return responses
		}
	}
	return responses
}
