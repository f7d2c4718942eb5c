package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/accountdesk/enrichment/internal/directory"
	"github.com/accountdesk/enrichment/internal/jobs"
	"github.com/accountdesk/enrichment/internal/logger"
	"github.com/accountdesk/enrichment/internal/matcher"
	"github.com/accountdesk/enrichment/internal/telemetry"
)

// Handler handles HTTP requests for the enrichment API.
type Handler struct {
	matcher   *matcher.Matcher
	runs      *jobs.Manager
	directory *directory.Client
	metrics   *telemetry.Provider
	log       logger.Logger
}

// NewHandler creates a new API handler. metrics may be nil.
func NewHandler(m *matcher.Matcher, runs *jobs.Manager, dir *directory.Client, metrics *telemetry.Provider, log logger.Logger) *Handler {
	return &Handler{
		matcher:   m,
		runs:      runs,
		directory: dir,
		metrics:   metrics,
		log:       log,
	}
}

// Match handles POST /api/v1/match.
func (h *Handler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid match request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.Info("matching contact batch",
		logger.Int("contacts", len(req.Contacts)),
		logger.Int("candidates", len(req.Candidates)),
	)

	start := time.Now()
	matches := h.matcher.MatchContacts(req.Contacts, req.Candidates)

	h.metrics.RecordMatchBatch(len(matches), time.Since(start))
	for _, results := range matches {
		h.metrics.RecordMatchType(string(results[0].MatchType))
	}

	c.JSON(http.StatusOK, MatchResponse{
		Matches: matches,
		Total:   len(req.Contacts),
		Matched: len(matches),
	})
}

// MatchBest handles POST /api/v1/match/best.
func (h *Handler) MatchBest(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid best-match request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	best := h.matcher.BestMatches(req.Contacts, req.Candidates)

	h.metrics.RecordMatchBatch(len(best), time.Since(start))
	for _, match := range best {
		h.metrics.RecordMatchType(string(match.MatchType))
	}

	c.JSON(http.StatusOK, BestMatchResponse{
		Matches: best,
		Total:   len(req.Contacts),
		Matched: len(best),
	})
}

// MatchReport handles POST /api/v1/match/report.
func (h *Handler) MatchReport(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid report request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := h.matcher.GenerateReport(req.Contacts, req.Candidates)

	h.log.Info("match report generated",
		logger.Int("total", report.TotalContacts),
		logger.Int("matched", report.MatchedContacts),
		logger.Float64("match_rate", report.MatchRate),
	)

	c.JSON(http.StatusOK, report)
}

// EnrichStart handles POST /api/v1/enrich.
func (h *Handler) EnrichStart(c *gin.Context) {
	var req EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid enrichment request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.runs.Start(req.Contacts)
	if err != nil {
		if errors.Is(err, jobs.ErrRunActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, toRunResponse(run))
}

// EnrichActive handles GET /api/v1/enrich/active.
func (h *Handler) EnrichActive(c *gin.Context) {
	run, ok := h.runs.Active()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active enrichment run"})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

// EnrichRun handles GET /api/v1/enrich/:id.
func (h *Handler) EnrichRun(c *gin.Context) {
	run, err := h.runs.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

// EnrichCancel handles POST /api/v1/enrich/:id/cancel.
func (h *Handler) EnrichCancel(c *gin.Context) {
	id := c.Param("id")
	if err := h.runs.Cancel(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	h.log.Info("enrichment run cancellation requested", logger.String("run_id", id))

	run, err := h.runs.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, toRunResponse(run))
}

// EnrichResults handles GET /api/v1/enrich/:id/results.
func (h *Handler) EnrichResults(c *gin.Context) {
	id := c.Param("id")

	run, err := h.runs.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	results, err := h.runs.Results(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResultsResponse{
		RunID:   id,
		Status:  run.Status,
		Results: results,
	})
}

// ClientCompetitors handles GET /api/v1/clients/:id/competitors. It walks
// every directory page for the organization and returns the full listing.
func (h *Handler) ClientCompetitors(c *gin.Context) {
	clientID := c.Param("id")

	competitors, err := h.directory.AllClientCompetitors(c.Request.Context(), clientID)
	if err != nil {
		status := http.StatusBadGateway
		if code, ok := directory.StatusCode(err); ok {
			status = code
		}
		h.log.Warn("competitor listing failed",
			logger.String("client_id", clientID),
			logger.Error(err),
		)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, CompetitorsResponse{
		ClientID:    clientID,
		Competitors: competitors,
		Total:       len(competitors),
	})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.directory.CacheStats())
}

// CacheClear handles POST /api/v1/cache/clear.
func (h *Handler) CacheClear(c *gin.Context) {
	h.directory.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
