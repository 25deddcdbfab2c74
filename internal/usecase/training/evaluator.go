package training

import "fmt"

// Metrics are the lightweight post-hoc health numbers computed from a
// trained model. Purely informational: evaluation problems never fail
// a run.
type Metrics struct {
	NumUsers int
	NumItems int
	// Coverage is a normalized rough capacity metric:
	// min(1, users*items/1e6).
	Coverage float64
}

// Summary renders the metrics for the job record message.
func (m Metrics) Summary() string {
	return fmt.Sprintf("users=%d items=%d coverage=%.4f", m.NumUsers, m.NumItems, m.Coverage)
}

// Evaluator computes Metrics from a trained model.
type Evaluator struct{}

// Evaluate computes the model health metrics. It cannot fail; a nil or
// empty model yields zero metrics.
func (Evaluator) Evaluate(model *Model) Metrics {
	if model == nil {
		return Metrics{}
	}
	users := len(model.UserFactors)
	items := len(model.ItemFactors)
	coverage := float64(users) * float64(items) / 1_000_000
	if coverage > 1 {
		coverage = 1
	}
	return Metrics{
		NumUsers: users,
		NumItems: items,
		Coverage: coverage,
	}
}
