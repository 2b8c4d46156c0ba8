// Package match groups question-answer units that ask the same question,
// which is what lets conversations from different platforms be aligned
// into one session.
package match

import "chatweave/internal/ir"

// Matcher groups QA units by question identity. Each returned group holds
// units answering the same question, typically one per platform.
type Matcher interface {
	Match(units []ir.QAUnit) [][]ir.QAUnit
}

// HashMatcher groups by exact user_query_hash equality. Normalization ran
// before hashing, so formatting differences between platforms do not break
// the match; genuinely reworded questions do, and that is intentional.
type HashMatcher struct{}

// NewHashMatcher returns the default matcher.
func NewHashMatcher() HashMatcher { return HashMatcher{} }

// Match returns hash groups ordered by first occurrence, followed by one
// singleton group per unit that has no hash.
func (HashMatcher) Match(units []ir.QAUnit) [][]ir.QAUnit {
	groups := make(map[string][]ir.QAUnit)
	var order []string
	var noHash []ir.QAUnit

	for _, unit := range units {
		if unit.UserQueryHash == nil || *unit.UserQueryHash == "" {
			noHash = append(noHash, unit)
			continue
		}
		hash := *unit.UserQueryHash
		if _, seen := groups[hash]; !seen {
			order = append(order, hash)
		}
		groups[hash] = append(groups[hash], unit)
	}

	result := make([][]ir.QAUnit, 0, len(order)+len(noHash))
	for _, hash := range order {
		result = append(result, groups[hash])
	}
	for _, unit := range noHash {
		result = append(result, []ir.QAUnit{unit})
	}
	return result
}
