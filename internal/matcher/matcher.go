// Package matcher reconciles local contacts against external directory
// records using weighted multi-field fuzzy comparison.
package matcher

import (
	"sort"

	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/similarity"
)

// MatchType describes which field carried a match.
type MatchType string

const (
	// MatchTypeEmail means the email term contributed to the score.
	MatchTypeEmail MatchType = "email"
	// MatchTypeNameCompany means the match was driven by name plus company.
	MatchTypeNameCompany MatchType = "name_company"
	// MatchTypeNameTitle means the match was driven by name plus title.
	MatchTypeNameTitle MatchType = "name_title"
	// MatchTypeFuzzy means no stronger signal than name similarity existed.
	MatchTypeFuzzy MatchType = "fuzzy"
)

// emailSimilarityGate is the minimum email similarity before the email term
// is allowed to contribute to the fused confidence.
const emailSimilarityGate = 0.8

// MatchResult pairs a local contact with a directory record and the fused
// confidence of the pairing.
type MatchResult struct {
	Contact    domain.LocalContact    `json:"contact"`
	Record     domain.DirectoryRecord `json:"record"`
	Confidence float64                `json:"confidence"`
	MatchType  MatchType              `json:"match_type"`
}

// Options holds the field weights and the inclusion gate for matching.
//
// Weights are not renormalized when fields are missing: a
// contact with only a name can never reach confidence 1.0 even on a perfect
// name match. The 0.6 and 0.8 thresholds elsewhere depend on this.
type Options struct {
	EmailWeight   float64 `json:"email_weight"   yaml:"email_weight"`
	NameWeight    float64 `json:"name_weight"    yaml:"name_weight"`
	CompanyWeight float64 `json:"company_weight" yaml:"company_weight"`
	TitleWeight   float64 `json:"title_weight"   yaml:"title_weight"`

	// MinConfidence is the inclusion gate: candidates scoring below it are
	// discarded entirely.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// DefaultOptions returns the standard matching weights.
func DefaultOptions() Options {
	return Options{
		EmailWeight:   0.4,
		NameWeight:    0.3,
		CompanyWeight: 0.2,
		TitleWeight:   0.1,
		MinConfidence: 0.6,
	}
}

// Matcher scores local contacts against directory candidates.
// All methods are pure computation; malformed records degrade to lower
// confidence rather than erroring.
type Matcher struct {
	opts Options
}

// New creates a Matcher with the given options. Zero-valued options fall
// back to the defaults.
func New(opts Options) *Matcher {
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	return &Matcher{opts: opts}
}

// Options returns the matcher's effective options.
func (m *Matcher) Options() Options {
	return m.opts
}

// MatchContact scores one contact against every candidate, discards
// candidates below the inclusion gate, and returns the rest sorted
// descending by confidence. Ties preserve candidate input order.
func (m *Matcher) MatchContact(contact domain.LocalContact, candidates []domain.DirectoryRecord) []MatchResult {
	var matches []MatchResult

	for _, cand := range candidates {
		confidence := 0.0
		emailContributed := false

		if contact.Email != "" && cand.Email != "" {
			emailSim := similarity.Score(contact.Email, cand.Email)
			if emailSim > emailSimilarityGate {
				confidence += m.opts.EmailWeight * emailSim
				emailContributed = true
			}
		}

		if contact.FirstName != "" && contact.LastName != "" && cand.Name != "" {
			confidence += m.opts.NameWeight * similarity.Score(contact.FullName(), cand.Name)
		}

		hasCompany := contact.Company != "" && cand.Company != ""
		if hasCompany {
			confidence += m.opts.CompanyWeight * similarity.Score(contact.Company, cand.Company)
		}

		hasTitle := contact.Title != "" && cand.Title != ""
		if hasTitle {
			confidence += m.opts.TitleWeight * similarity.Score(contact.Title, cand.Title)
		}

		if confidence < m.opts.MinConfidence {
			continue
		}

		matches = append(matches, MatchResult{
			Contact:    contact,
			Record:     cand,
			Confidence: confidence,
			MatchType:  classify(emailContributed, hasCompany, hasTitle),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches
}

// classify picks the match type from the terms that were present.
func classify(emailContributed, hasCompany, hasTitle bool) MatchType {
	switch {
	case emailContributed:
		return MatchTypeEmail
	case hasCompany:
		return MatchTypeNameCompany
	case hasTitle:
		return MatchTypeNameTitle
	default:
		return MatchTypeFuzzy
	}
}

// MatchContacts applies MatchContact per contact, omitting contacts with
// zero qualifying candidates.
func (m *Matcher) MatchContacts(contacts []domain.LocalContact, candidates []domain.DirectoryRecord) map[string][]MatchResult {
	results := make(map[string][]MatchResult)

	for _, contact := range contacts {
		matches := m.MatchContact(contact, candidates)
		if len(matches) > 0 {
			results[contact.ID] = matches
		}
	}

	return results
}

// BestMatches returns the highest-confidence match per contact.
func (m *Matcher) BestMatches(contacts []domain.LocalContact, candidates []domain.DirectoryRecord) map[string]MatchResult {
	all := m.MatchContacts(contacts, candidates)
	best := make(map[string]MatchResult, len(all))

	for contactID, matches := range all {
		best[contactID] = matches[0]
	}

	return best
}
