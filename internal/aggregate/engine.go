package aggregate

import (
	"fmt"
	"time"

	"github.com/xealabs/xea-oracle/internal/model"
	"github.com/xealabs/xea-oracle/internal/store"
)

// Engine turns a completed job's collected responses into an evidence
// bundle. All computation is deterministic over the stored responses:
// aggregating the same job twice reproduces the same bundle.
type Engine struct {
	store *store.Store
}

// NewEngine creates an aggregation engine over the given store
func NewEngine(st *store.Store) *Engine {
	return &Engine{store: st}
}

// AggregateJob builds, persists and returns the evidence bundle for a
// completed job. Returns store.ErrInvalidState if the job has not
// completed yet.
func (e *Engine) AggregateJob(jobID string) (*model.EvidenceBundle, error) {
	job, err := e.store.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobCompleted {
		return nil, fmt.Errorf("%w: job %s is %s, aggregation requires completed",
			store.ErrInvalidState, jobID, job.Status)
	}

	bundle := BuildBundle(job)

	if err := e.store.PutBundle(bundle); err != nil {
		return nil, fmt.Errorf("persist bundle: %w", err)
	}
	return bundle, nil
}

// BuildBundle computes the evidence bundle for a job record. Pure:
// no I/O beyond the record the caller supplies.
func BuildBundle(job *model.JobRecord) *model.EvidenceBundle {
	all := job.AllResponses()

	claims := make([]model.ClaimAggregation, 0, len(job.ClaimIDs))
	var claimPoIs []float64
	var claimPoUWs []float64
	covered := 0
	outliersSeen := false

	for _, claimID := range job.ClaimIDs {
		responses := job.Responses[claimID]

		pouwValues := make([]float64, 0, len(responses))
		for _, r := range responses {
			// Composite is derived, never trusted from the wire.
			pouwValues = append(pouwValues, PoUWComposite(r.Scores))
		}

		lo, hi := ConfidenceInterval(pouwValues, 0.95)
		outliers := DetectOutliers(responses)
		if len(outliers) > 0 {
			outliersSeen = true
		}

		agg := model.ClaimAggregation{
			ClaimID:          claimID,
			PoIAgreement:     PoIAgreement(responses, claimID),
			ConsensusVerdict: ConsensusVerdict(responses, claimID),
			PoUWMean:         Round3(Mean(pouwValues)),
			PoUWCI:           [2]float64{lo, hi},
			RespondingMiners: len(responses),
			Outliers:         outliers,
		}
		claims = append(claims, agg)

		if len(responses) > 0 {
			covered++
			claimPoIs = append(claimPoIs, agg.PoIAgreement)
			claimPoUWs = append(claimPoUWs, agg.PoUWMean)
		}
	}

	coverage := 0.0
	if len(job.ClaimIDs) > 0 {
		coverage = Round3(float64(covered) / float64(len(job.ClaimIDs)))
	}

	poiLo, poiHi := ConfidenceInterval(claimPoIs, 0.95)
	pouwLo, pouwHi := ConfidenceInterval(claimPoUWs, 0.95)

	totalMiners, respondingMiners := minerCounts(job)

	metrics := model.AggregatedMetrics{
		PoIAgreement:           Round3(Mean(claimPoIs)),
		PoIConfidenceInterval:  [2]float64{poiLo, poiHi},
		PoUWScore:              Round3(Mean(claimPoUWs)),
		PoUWConfidenceInterval: [2]float64{pouwLo, pouwHi},
		TotalMiners:            totalMiners,
		RespondingMiners:       respondingMiners,
		ConsensusVerdict:       overallConsensus(all),
		ClaimCoverage:          coverage,
	}

	recommendation := Recommend(metrics)

	criticalFlags := append([]string{}, recommendation.RiskFlags...)
	if outliersSeen {
		criticalFlags = append(criticalFlags, FlagOutliersDetected)
	}

	timestamp := ""
	if job.CompletedAt != nil {
		timestamp = job.CompletedAt.UTC().Format(time.RFC3339)
	}

	return &model.EvidenceBundle{
		ProposalHash:        job.ProposalHash,
		JobID:               job.JobID,
		Claims:              claims,
		OverallPoIAgreement: metrics.PoIAgreement,
		OverallPoUWScore:    metrics.PoUWScore,
		OverallCI95:         metrics.PoUWConfidenceInterval,
		CriticalFlags:       criticalFlags,
		Metrics:             metrics,
		Recommendation:      recommendation,
		Timestamp:           timestamp,
	}
}

// overallConsensus is the plurality verdict across every response of
// the job, with the same tie-break order as per-claim consensus
func overallConsensus(responses []model.MinerResponse) model.Verdict {
	counts := make(map[model.Verdict]int)
	for _, r := range responses {
		counts[r.Verdict]++
	}
	best := model.VerdictUnverifiable
	bestCount := -1
	for _, v := range model.Verdicts {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// minerCounts derives (total, responding) miners for the metrics.
// The per-claim pool size is miners_contacted spread over the claims
// actually dispatched; responding miners are the distinct ids seen.
func minerCounts(job *model.JobRecord) (int, int) {
	distinct := make(map[string]struct{})
	for _, r := range job.AllResponses() {
		distinct[r.MinerID] = struct{}{}
	}
	responding := len(distinct)

	total := 0
	if job.ClaimsValidated > 0 {
		total = job.MinersContacted / job.ClaimsValidated
	}
	if total < responding {
		total = responding
	}
	return total, responding
}
