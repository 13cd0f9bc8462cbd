package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// ReposHandler handles repository read endpoints.
type ReposHandler struct {
	store port.RecordStore
}

// NewReposHandler creates a new repos handler.
func NewReposHandler(store port.RecordStore) *ReposHandler {
	return &ReposHandler{store: store}
}

// Register sets up repo routes.
func (h *ReposHandler) Register(router fiber.Router) {
	repos := router.Group("/repos")
	repos.Get("/", h.List)
	repos.Get("/:id/commits", h.ListCommits)
}

// List returns all tracked repositories.
func (h *ReposHandler) List(c fiber.Ctx) error {
	repos, err := h.store.ListRepositories(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"repos": repos, "count": len(repos)})
}

// ListCommits returns recorded commits for a repository, newest first.
func (h *ReposHandler) ListCommits(c fiber.Ctx) error {
	repoID := c.Params("id")

	if _, err := h.store.GetRepository(c.Context(), repoID); err != nil {
		if errors.Is(err, port.ErrRepoNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "repository not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	limit := queryInt(c, "limit", 50)
	if limit <= 0 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	commits, err := h.store.ListCommits(c.Context(), repoID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"commits": commits,
		"count":   len(commits),
		"limit":   limit,
		"offset":  offset,
	})
}

// queryInt reads an integer query param with a default value.
func queryInt(c fiber.Ctx, key string, defaultVal int) int {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
