package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
)

// WebhookHandler acknowledges forge push notifications. Incoming
// events are logged and acknowledged only; extraction happens through
// explicit analysis jobs.
type WebhookHandler struct{}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{}
}

// Register sets up webhook routes at the application root.
func (h *WebhookHandler) Register(app *fiber.App) {
	app.Post("/webhook/commit", h.Commit)
}

// Commit acknowledges a commit notification.
func (h *WebhookHandler) Commit(c fiber.Ctx) error {
	var body struct {
		RepositoryID string `json:"repository_id"`
		CommitSHA    string `json:"commit_sha"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	slog.Info("webhook received", "repository_id", body.RepositoryID, "commit_sha", body.CommitSHA)
	return c.JSON(fiber.Map{"status": "received"})
}
