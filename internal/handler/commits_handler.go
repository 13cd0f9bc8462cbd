package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// archiveURLExpiry bounds how long a presigned download link stays
// valid.
const archiveURLExpiry = time.Hour

// CommitsHandler handles commit read endpoints.
type CommitsHandler struct {
	store port.RecordStore
	blobs port.BlobStore
}

// NewCommitsHandler creates a new commits handler.
func NewCommitsHandler(store port.RecordStore, blobs port.BlobStore) *CommitsHandler {
	return &CommitsHandler{store: store, blobs: blobs}
}

// Register sets up commit routes.
func (h *CommitsHandler) Register(router fiber.Router) {
	commits := router.Group("/commits")
	commits.Get("/:id", h.Get)
	commits.Get("/:id/archive", h.ArchiveURL)
}

// Get returns one commit with its changed files.
func (h *CommitsHandler) Get(c fiber.Ctx) error {
	rec, err := h.store.GetCommit(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrCommitNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "commit not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rec)
}

// ArchiveURL returns a presigned download URL for the commit's archive.
func (h *CommitsHandler) ArchiveURL(c fiber.Ctx) error {
	rec, err := h.store.GetCommit(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrCommitNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "commit not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if rec.ArchiveKey == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "commit has no archive"})
	}

	url, err := h.blobs.PresignedGet(c.Context(), rec.ArchiveKey, archiveURLExpiry)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"url":        url,
		"key":        rec.ArchiveKey,
		"size":       rec.ArchiveSize,
		"expires_in": int(archiveURLExpiry.Seconds()),
	})
}
