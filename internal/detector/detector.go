// Package detector implements the three opportunity detectors. Detectors are
// pure over the cycle's snapshot (plus, for the statistical one, the
// indicator engine's memoized state): they perform no I/O and mutate nothing,
// so they can be re-run or reordered freely within a cycle.
package detector

import "github.com/quantarb/arbot/internal/domain"

// Detector turns one immutable market snapshot into zero or more
// opportunities. Implementations must tolerate missing cells by skipping the
// affected comparison, never by returning an error.
type Detector interface {
	Name() string
	Detect(snap *domain.MarketSnapshot) []domain.Opportunity
}
