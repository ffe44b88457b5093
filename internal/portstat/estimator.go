package portstat

import (
	"sort"
	"strings"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
	"gonum.org/v1/gonum/stat"
)

var summaryQuantiles = [4]float64{0.50, 0.75, 0.90, 1.0}

// ParseCumulantKind maps a config value onto the quantile definition used for
// summaries. "lininterp" interpolates between the two nearest samples,
// "empirical" always returns an observed sample.
func ParseCumulantKind(kind string) (stat.CumulantKind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "lininterp":
		return stat.LinInterp, nil
	case "empirical":
		return stat.Empirical, nil
	}
	return stat.Empirical, ErrUnknownCumulantKind
}

// percentileEstimator keeps the per-sample totals of the current interval and
// answers the summary quantiles over them.
type percentileEstimator struct {
	kind    stat.CumulantKind
	samples []float64
}

func newPercentileEstimator(kind stat.CumulantKind) *percentileEstimator {
	return &percentileEstimator{
		kind: kind,
	}
}

func (e *percentileEstimator) add(v float64) {
	e.samples = append(e.samples, v)
}

func (e *percentileEstimator) len() int {
	return len(e.samples)
}

func (e *percentileEstimator) reset() {
	e.samples = e.samples[:0]
}

func (e *percentileEstimator) percentiles() (structs.Percentiles, error) {
	if len(e.samples) == 0 {
		return structs.Percentiles{}, ErrNoSamples
	}
	// stat.Quantile requires sorted input; sample order carries no meaning
	if !sort.Float64sAreSorted(e.samples) {
		sort.Float64s(e.samples)
	}
	var q [len(summaryQuantiles)]float64
	for i, p := range summaryQuantiles {
		q[i] = stat.Quantile(p, e.kind, e.samples, nil)
	}
	return structs.Percentiles{
		P50:  q[0],
		P75:  q[1],
		P90:  q[2],
		P100: q[3],
	}, nil
}
