package aggregate

import (
	"reflect"
	"strings"
	"testing"

	"github.com/xealabs/xea-oracle/internal/model"
)

func baseMetrics() model.AggregatedMetrics {
	return model.AggregatedMetrics{
		PoIAgreement:           0.8,
		PoIConfidenceInterval:  [2]float64{0.7, 0.9},
		PoUWScore:              0.75,
		PoUWConfidenceInterval: [2]float64{0.7, 0.8},
		TotalMiners:            5,
		RespondingMiners:       5,
		ConsensusVerdict:       model.VerdictVerified,
		ClaimCoverage:          1.0,
	}
}

func TestRecommendActions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.AggregatedMetrics)
		want   string
	}{
		{
			name:   "verified with strong agreement approves",
			mutate: func(m *model.AggregatedMetrics) {},
			want:   model.ActionApprove,
		},
		{
			name: "verified but weak agreement goes to review",
			mutate: func(m *model.AggregatedMetrics) {
				m.PoIAgreement = 0.6
			},
			want: model.ActionReview,
		},
		{
			name: "verified but weak pouw goes to review",
			mutate: func(m *model.AggregatedMetrics) {
				m.PoUWScore = 0.5
			},
			want: model.ActionReview,
		},
		{
			name: "refuted with strong agreement rejects",
			mutate: func(m *model.AggregatedMetrics) {
				m.ConsensusVerdict = model.VerdictRefuted
			},
			want: model.ActionReject,
		},
		{
			name: "refuted with weak agreement goes to review",
			mutate: func(m *model.AggregatedMetrics) {
				m.ConsensusVerdict = model.VerdictRefuted
				m.PoIAgreement = 0.5
			},
			want: model.ActionReview,
		},
		{
			name: "unverifiable goes to review",
			mutate: func(m *model.AggregatedMetrics) {
				m.ConsensusVerdict = model.VerdictUnverifiable
			},
			want: model.ActionReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := baseMetrics()
			tt.mutate(&metrics)
			rec := Recommend(metrics)
			if rec.Action != tt.want {
				t.Fatalf("Recommend().Action = %q, want %q", rec.Action, tt.want)
			}
			if !strings.Contains(rec.Summary, tt.want) {
				t.Errorf("summary %q does not mention action %q", rec.Summary, tt.want)
			}
		})
	}
}

func TestRecommendRiskFlags(t *testing.T) {
	metrics := baseMetrics()
	if flags := Recommend(metrics).RiskFlags; len(flags) != 0 {
		t.Fatalf("healthy metrics produced risk flags %v", flags)
	}

	metrics.ClaimCoverage = 0.4
	metrics.PoUWConfidenceInterval = [2]float64{0.3, 0.7}
	got := Recommend(metrics).RiskFlags
	want := []string{FlagLowCoverage, FlagHighDispersion}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RiskFlags = %v, want %v", got, want)
	}
}

func TestRecommendConfidence(t *testing.T) {
	metrics := baseMetrics()
	rec := Recommend(metrics)
	want := Round3(0.8 * 0.75 * 1.0)
	if rec.Confidence != want {
		t.Fatalf("Confidence = %v, want %v", rec.Confidence, want)
	}

	metrics.ClaimCoverage = 0
	if c := Recommend(metrics).Confidence; c != 0 {
		t.Fatalf("Confidence with zero coverage = %v, want 0", c)
	}
}
