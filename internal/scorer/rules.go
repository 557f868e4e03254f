package scorer

// RulesScorer is the deterministic, rule-based scoring backend. It is
// stateless and pure: identical input always produces identical output,
// which makes analysis results reproducible.
type RulesScorer struct{}

// Ensure RulesScorer implements Scorer
var _ Scorer = (*RulesScorer)(nil)

// NewRulesScorer creates the deterministic scoring backend.
func NewRulesScorer() *RulesScorer {
	return &RulesScorer{}
}

// Name implements Scorer
func (s *RulesScorer) Name() string {
	return "rules"
}
