package api

import (
	"time"

	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/jobs"
	"github.com/accountdesk/enrichment/internal/matcher"
)

// MatchRequest carries one contact batch and the directory export to score
// it against.
type MatchRequest struct {
	Contacts   []domain.LocalContact    `json:"contacts"   binding:"required,min=1"`
	Candidates []domain.DirectoryRecord `json:"candidates" binding:"required"`
}

// MatchResponse maps contact ids to their qualifying matches, highest
// confidence first. Contacts with no qualifying match are omitted.
type MatchResponse struct {
	Matches map[string][]matcher.MatchResult `json:"matches"`
	Total   int                              `json:"total"`
	Matched int                              `json:"matched"`
}

// BestMatchResponse maps contact ids to their single best match.
type BestMatchResponse struct {
	Matches map[string]matcher.MatchResult `json:"matches"`
	Total   int                            `json:"total"`
	Matched int                            `json:"matched"`
}

// EnrichRequest carries the contact batch to enrich from the directory.
type EnrichRequest struct {
	Contacts []domain.LocalContact `json:"contacts" binding:"required,min=1"`
}

// CompetitorsResponse carries the complete competitor listing for one
// organization, concatenated across every directory page.
type CompetitorsResponse struct {
	ClientID    string              `json:"client_id"`
	Competitors []domain.Competitor `json:"competitors"`
	Total       int                 `json:"total"`
}

// RunResponse is the API surface of one enrichment run.
type RunResponse struct {
	ID         string                    `json:"id"`
	Status     jobs.Status               `json:"status"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
	Progress   domain.EnrichmentProgress `json:"progress"`
	Error      string                    `json:"error,omitempty"`
}

// ResultsResponse carries a finished run's per-contact enrichment data.
type ResultsResponse struct {
	RunID   string                              `json:"run_id"`
	Status  jobs.Status                         `json:"status"`
	Results map[string]*domain.EnrichmentResult `json:"results"`
}

// toRunResponse converts a run snapshot to its API shape.
func toRunResponse(r jobs.Run) RunResponse {
	resp := RunResponse{
		ID:        r.ID,
		Status:    r.Status,
		StartedAt: r.StartedAt,
		Progress:  r.Progress,
		Error:     r.Error,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		resp.FinishedAt = &finished
	}
	return resp
}
