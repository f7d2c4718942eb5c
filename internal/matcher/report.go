package matcher

import (
	"github.com/accountdesk/enrichment/internal/domain"
)

// lowConfidenceThreshold flags best matches that qualified through the
// inclusion gate but should still be reviewed by hand. It is a quality
// marker, not a filter.
const lowConfidenceThreshold = 0.8

// Report aggregates the outcome of matching a contact batch against a
// directory export. Derived, stateless, recomputed per run.
type Report struct {
	TotalContacts   int     `json:"total_contacts"`
	MatchedContacts int     `json:"matched_contacts"`
	MatchRate       float64 `json:"match_rate"`

	MatchesByType map[MatchType]int `json:"matches_by_type"`

	UnmatchedContacts    []domain.LocalContact `json:"unmatched_contacts"`
	LowConfidenceMatches []MatchResult         `json:"low_confidence_matches"`
}

// GenerateReport runs BestMatches over the batch and partitions contacts by
// whether a best match exists.
func (m *Matcher) GenerateReport(contacts []domain.LocalContact, candidates []domain.DirectoryRecord) Report {
	best := m.BestMatches(contacts, candidates)

	report := Report{
		TotalContacts:   len(contacts),
		MatchedContacts: len(best),
		MatchesByType:   make(map[MatchType]int),
	}

	if len(contacts) > 0 {
		report.MatchRate = float64(len(best)) / float64(len(contacts))
	}

	for _, contact := range contacts {
		match, ok := best[contact.ID]
		if !ok {
			report.UnmatchedContacts = append(report.UnmatchedContacts, contact)
			continue
		}

		report.MatchesByType[match.MatchType]++
		if match.Confidence < lowConfidenceThreshold {
			report.LowConfidenceMatches = append(report.LowConfidenceMatches, match)
		}
	}

	return report
}
