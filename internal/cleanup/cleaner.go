// Package cleanup runs the periodic call-deadline worker.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/storage"
)

// Cleaner closes calls whose submission deadline has passed
type Cleaner struct {
	repo     storage.Repository
	interval time.Duration
}

// NewCleaner creates a new deadline worker
func NewCleaner(repo storage.Repository, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		repo:     repo,
		interval: interval,
	}
}

// Start begins the worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("call deadline worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.closeExpired(ctx)
	c.flagExpiredCorrections(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("call deadline worker stopped")
			return
		case <-ticker.C:
			c.closeExpired(ctx)
			c.flagExpiredCorrections(ctx)
		}
	}
}

// closeExpired finds active calls past their deadline and closes them
func (c *Cleaner) closeExpired(ctx context.Context) {
	slog.Debug("running deadline cycle")

	expired, err := c.repo.GetExpiredCalls(ctx)
	if err != nil {
		slog.Error("failed to get expired calls", "error", err)
		return
	}

	if len(expired) == 0 {
		slog.Debug("no expired calls found")
		return
	}

	slog.Info("found expired calls", "count", len(expired))

	for _, call := range expired {
		call.Status = models.CallClosed
		if err := c.repo.UpdateCall(ctx, call); err != nil {
			slog.Error("failed to close expired call",
				"error", err,
				"call_id", call.ID,
			)
			continue
		}

		slog.Info("call closed at deadline",
			"call_id", call.ID,
			"name", call.Name,
			"deadline", call.Deadline,
		)
	}
}

// flagExpiredCorrections logs every project still waiting on a correction
// after its call deadline passed. Status is left untouched so nothing the
// presenter uploaded is lost; it returns how many projects were flagged.
func (c *Cleaner) flagExpiredCorrections(ctx context.Context) int {
	now := time.Now().UTC()
	deadlines := make(map[string]time.Time)

	flagged := 0
	for _, status := range []models.ProjectStatus{models.StatusNeedsCorrection, models.StatusCorrectionInProgress} {
		projects, err := c.repo.ListProjects(ctx, models.ListFilters{Status: status})
		if err != nil {
			slog.Error("failed to list projects awaiting correction", "error", err, "status", status)
			continue
		}

		for _, p := range projects {
			deadline, ok := deadlines[p.CallID]
			if !ok {
				call, err := c.repo.GetCall(ctx, p.CallID)
				if err != nil {
					slog.Error("failed to get call for correction check",
						"error", err,
						"call_id", p.CallID,
					)
					continue
				}
				deadline = call.Deadline
				deadlines[p.CallID] = deadline
			}

			if deadline.After(now) {
				continue
			}

			flagged++
			slog.Warn("correction request expired without resubmission",
				"project_id", p.ID,
				"call_id", p.CallID,
				"status", p.Status,
				"deadline", deadline,
			)
		}
	}

	return flagged
}
