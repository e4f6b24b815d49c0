package aggregate

import (
	"math"
	"sort"

	"github.com/xealabs/xea-oracle/internal/model"
)

// OutlierThreshold is the modified z-score beyond which a response is
// flagged. A full Mahalanobis distance needs an invertible covariance
// matrix, which tiny per-claim populations (3-10 responses) cannot
// supply, and a classical z-score saturates below 2.5 for n <= 8. The
// distance used instead is the diagonal robust form: each feature is
// standardized as a modified z-score (0.6745 * |x - median| / MAD,
// Iglewicz-Hoberg), and a response's distance is its largest
// per-feature score. 3.5 is the conventional cutoff.
const OutlierThreshold = 3.5

// minOutlierPopulation is the smallest population that can flag an
// outlier. Below it there is no meaningful center to deviate from.
const minOutlierPopulation = 3

// DetectOutliers flags miners whose score/embedding vectors lie
// unusually far from the per-claim population center. The result is
// sorted miner ids; identical inputs always produce identical output.
func DetectOutliers(responses []model.MinerResponse) []string {
	if len(responses) < minOutlierPopulation {
		return nil
	}

	features := make([][]float64, len(responses))
	for i, r := range responses {
		features[i] = featureVector(r)
	}

	dims := len(features[0])
	var outliers []string
	for i, r := range responses {
		distance := 0.0
		for d := 0; d < dims; d++ {
			col := make([]float64, len(features))
			for j := range features {
				col[j] = features[j][d]
			}
			if z := modifiedZ(features[i][d], col); z > distance {
				distance = z
			}
		}
		if distance > OutlierThreshold {
			outliers = append(outliers, r.MinerID)
		}
	}

	sort.Strings(outliers)
	return outliers
}

// modifiedZ is the robust standardized distance of x from the
// population's median. When the MAD degenerates to zero the mean
// absolute deviation takes its place (with the matching 0.7979
// consistency factor); a fully constant feature scores zero.
func modifiedZ(x float64, population []float64) float64 {
	med := median(population)

	deviations := make([]float64, len(population))
	for i, v := range population {
		deviations[i] = math.Abs(v - med)
	}

	if mad := median(deviations); mad > 0 {
		return 0.6745 * math.Abs(x-med) / mad
	}
	if meanAD := Mean(deviations); meanAD > 0 {
		return 0.7979 * math.Abs(x-med) / meanAD
	}
	return 0
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// featureVector projects a response onto the dimensions used for
// distance: the four rubric scores plus the embedding mean (0 when the
// miner supplied no embedding).
func featureVector(r model.MinerResponse) []float64 {
	return []float64{
		r.Scores.Accuracy,
		r.Scores.OmissionRisk,
		r.Scores.EvidenceQuality,
		r.Scores.GovernanceRelevance,
		Mean(r.Embedding),
	}
}
