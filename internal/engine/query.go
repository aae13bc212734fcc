//
//  Copyright © Manetu Inc. All rights reserved.
//

package engine

import "strings"

// Kind selects which entity table a query runs against.
type Kind int

const (
	// KindPermission searches the permission table.
	KindPermission Kind = iota
	// KindRole searches the role table.
	KindRole
)

// Mode selects the matching strategy.  Unrecognized values behave as
// ModeFuzzy.
type Mode string

const (
	ModeExact  Mode = "exact"
	ModePrefix Mode = "prefix"
	ModeFuzzy  Mode = "fuzzy"
)

// ParseMode normalizes a caller-supplied mode string.  Empty input selects
// the default (prefix); anything unrecognized selects fuzzy.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(s)) {
	case ModeExact:
		return ModeExact
	case ModePrefix, Mode(""):
		return ModePrefix
	default:
		return ModeFuzzy
	}
}

const (
	// MaxResults caps how many candidates a single query may yield.
	MaxResults = 20

	scoreExact     = 1.0
	scorePrefix    = 0.9
	scoreSubstring = 0.85

	ngramSize = 3
)

// Candidate is a raw query hit: a table index plus its relevance score.
// Candidates are produced in table order, never re-sorted.
type Candidate struct {
	Index int
	Score float64
}

// ngrams returns the set of character trigrams of s.  Strings shorter than
// the gram size yield a single-element set holding the whole string, so
// short queries still have a defined similarity.
func ngrams(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < ngramSize {
		return map[string]struct{}{s: {}}
	}
	set := make(map[string]struct{}, len(runes)-ngramSize+1)
	for i := 0; i+ngramSize <= len(runes); i++ {
		set[string(runes[i:i+ngramSize])] = struct{}{}
	}
	return set
}

// jaccard computes the Jaccard similarity of two trigram sets.  Two empty
// sets are defined as maximally similar; a zero-size union otherwise scores
// zero.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	intersection := 0
	for g := range a {
		if _, ok := b[g]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Search runs a query against one entity table and returns scored
// candidates in table order.  A non-positive limit, or one above
// MaxResults, is clamped to MaxResults.
//
// Exact matching is case-sensitive against primary names only and yields at
// most one candidate.  Prefix and fuzzy matching are case-insensitive; for
// roles they also consider the title, with the fuzzy score being the better
// of the name and title similarities.  Fuzzy awards a fixed substring score
// when the query occurs anywhere in the field, and otherwise falls back to
// trigram similarity gated by threshold.
func (e *Engine) Search(kind Kind, query string, mode Mode, threshold float64, limit int) []Candidate {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	switch mode {
	case ModeExact:
		return e.searchExact(kind, query)
	case ModePrefix:
		return e.searchPrefix(kind, query, limit)
	default:
		return e.searchFuzzy(kind, query, threshold, limit)
	}
}

func (e *Engine) searchExact(kind Kind, query string) []Candidate {
	var idx int
	var ok bool
	if kind == KindPermission {
		idx, ok = e.tables.PermissionIndex(query)
	} else {
		idx, ok = e.tables.RoleIndex(query)
	}
	if !ok {
		return nil
	}
	return []Candidate{{Index: idx, Score: scoreExact}}
}

func (e *Engine) searchPrefix(kind Kind, query string, limit int) []Candidate {
	q := strings.ToLower(query)
	var out []Candidate

	if kind == KindPermission {
		for i, name := range e.tables.PermissionNamesLower {
			if strings.HasPrefix(name, q) {
				out = append(out, Candidate{Index: i, Score: scorePrefix})
				if len(out) == limit {
					break
				}
			}
		}
		return out
	}

	for i, name := range e.tables.RoleNamesLower {
		if strings.HasPrefix(name, q) || strings.HasPrefix(e.tables.RoleTitlesLower[i], q) {
			out = append(out, Candidate{Index: i, Score: scorePrefix})
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (e *Engine) searchFuzzy(kind Kind, query string, threshold float64, limit int) []Candidate {
	q := strings.ToLower(query)
	qGrams := ngrams(q)
	var out []Candidate

	if kind == KindPermission {
		for i, name := range e.tables.PermissionNamesLower {
			score, hit := fuzzyMatch(threshold, qGrams, q, name)
			if hit {
				out = append(out, Candidate{Index: i, Score: score})
				if len(out) == limit {
					break
				}
			}
		}
		return out
	}

	for i, name := range e.tables.RoleNamesLower {
		score, hit := fuzzyMatch(threshold, qGrams, q, name, e.tables.RoleTitlesLower[i])
		if hit {
			out = append(out, Candidate{Index: i, Score: score})
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// fuzzyMatch rates the query against one or more fields.  A substring
// occurrence in any field wins the fixed substring score outright;
// otherwise the best per-field trigram similarity counts, gated by
// threshold.
func fuzzyMatch(threshold float64, qGrams map[string]struct{}, q string, fields ...string) (float64, bool) {
	for _, f := range fields {
		if strings.Contains(f, q) {
			return scoreSubstring, true
		}
	}

	best := 0.0
	for _, f := range fields {
		if sim := jaccard(qGrams, ngrams(f)); sim > best {
			best = sim
		}
	}
	if best >= threshold {
		return best, true
	}
	return 0, false
}
