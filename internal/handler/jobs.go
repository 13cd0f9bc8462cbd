package handler

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// JobTracker mirrors job transitions in memory for live streaming. The
// record store stays the source of truth; the tracker only fans out
// snapshots to SSE subscribers.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*domain.AnalysisJob
	subs map[string][]chan domain.AnalysisJob
}

// NewJobTracker creates a new job tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*domain.AnalysisJob),
		subs: make(map[string][]chan domain.AnalysisJob),
	}
}

// Notify records a job snapshot and fans it out to subscribers. The
// fan-out runs under the tracker lock so Unsubscribe can never close a
// channel between snapshot and send. Sends never block; slow
// subscribers lose intermediate updates rather than stalling the
// pipeline.
func (t *JobTracker) Notify(job *domain.AnalysisJob) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := *job
	t.jobs[job.ID] = &snapshot

	for _, ch := range t.subs[job.ID] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Get returns the latest tracked snapshot of a job.
func (t *JobTracker) Get(id string) (*domain.AnalysisJob, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// Subscribe returns a channel that receives job updates.
func (t *JobTracker) Subscribe(id string) chan domain.AnalysisJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan domain.AnalysisJob, 10)
	t.subs[id] = append(t.subs[id], ch)
	return ch
}

// Unsubscribe removes a channel from subscribers.
func (t *JobTracker) Unsubscribe(id string, ch chan domain.AnalysisJob) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subs[id]
	for i, s := range subs {
		if s == ch {
			t.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(ch)
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store   port.RecordStore
	tracker *JobTracker
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store port.RecordStore, tracker *JobTracker) *JobsHandler {
	return &JobsHandler{store: store, tracker: tracker}
}

// Register sets up job routes.
func (h *JobsHandler) Register(router fiber.Router) {
	jobs := router.Group("/jobs")
	jobs.Get("/:id", h.GetStatus)
	jobs.Get("/:id/stream", h.StreamSSE)
}

// GetStatus returns the durable job row.
func (h *JobsHandler) GetStatus(c fiber.Ctx) error {
	id := c.Params("id")
	job, err := h.store.GetJob(c.Context(), id)
	if errors.Is(err, port.ErrJobNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(job)
}

// StreamSSE streams job updates via Server-Sent Events until the job
// reaches a terminal status.
func (h *JobsHandler) StreamSSE(c fiber.Ctx) error {
	id := c.Params("id")

	job, err := h.store.GetJob(c.Context(), id)
	if errors.Is(err, port.ErrJobNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Access-Control-Allow-Origin", "*")

	// Already terminal: send the final state and close.
	if job.Terminal() {
		data, _ := json.Marshal(job)
		return c.SendString(fmt.Sprintf("event: %s\ndata: %s\n\n", job.Status, string(data)))
	}

	ch := h.tracker.Subscribe(id)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.tracker.Unsubscribe(id, ch)

		// The pipeline may have advanced between the store read and the
		// subscription; updates from that window were never queued, so
		// take the tracker's snapshot as the starting state.
		if tracked, ok := h.tracker.Get(id); ok {
			job = tracked
		}

		eventType := "progress"
		if job.Terminal() {
			eventType = job.Status
		}
		data, _ := json.Marshal(job)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, string(data))
		w.Flush()
		if job.Terminal() {
			return
		}

		timeout := time.After(30 * time.Minute)
		for {
			select {
			case update, ok := <-ch:
				if !ok {
					return
				}
				data, _ := json.Marshal(update)
				eventType := "progress"
				if update.Terminal() {
					eventType = update.Status
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, string(data))
				w.Flush()

				if update.Terminal() {
					return
				}
			case <-timeout:
				slog.Warn("SSE timeout", "job_id", id)
				return
			}
		}
	})
}
