package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/service"
)

// Submitter accepts analysis requests for background processing.
type Submitter interface {
	Submit(ctx context.Context, req service.IngestRequest) (*domain.AnalysisJob, error)
}

var _ Submitter = (*service.IngestService)(nil)

// AnalyzeHandler handles analysis submission.
type AnalyzeHandler struct {
	ingest Submitter
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(ingest Submitter) *AnalyzeHandler {
	return &AnalyzeHandler{ingest: ingest}
}

// Register sets up the analyze route.
func (h *AnalyzeHandler) Register(router fiber.Router) {
	router.Post("/analyze", h.Analyze)
}

// Analyze accepts a job and returns 202 immediately. The pipeline runs
// in the background; callers poll or stream the job for progress.
func (h *AnalyzeHandler) Analyze(c fiber.Ctx) error {
	var body struct {
		JobID           string `json:"jobId"`
		RepoURL         string `json:"repoUrl"`
		Branch          string `json:"branch"`
		CredentialToken string `json:"credentialToken"`
		StartDate       string `json:"startDate"`
		EndDate         string `json:"endDate"`
		AuthorFilter    string `json:"authorFilter"`
		AllBranches     bool   `json:"allBranches"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if body.JobID == "" || body.RepoURL == "" || body.Branch == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "jobId, repoUrl and branch are required"})
	}
	if !validDate(body.StartDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "startDate must be YYYY-MM-DD"})
	}
	if !validDate(body.EndDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endDate must be YYYY-MM-DD"})
	}

	job, err := h.ingest.Submit(c.Context(), service.IngestRequest{
		JobID:           body.JobID,
		RepoURL:         body.RepoURL,
		Branch:          body.Branch,
		CredentialToken: body.CredentialToken,
		StartDate:       body.StartDate,
		EndDate:         body.EndDate,
		AuthorFilter:    body.AuthorFilter,
		AllBranches:     body.AllBranches,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"jobId":  job.ID,
		"status": "processing",
	})
}

// validDate accepts an empty string or a YYYY-MM-DD calendar date.
func validDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
