package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lineup/internal/draft"
	"lineup/internal/logging"
	"lineup/internal/schedule"
	"lineup/internal/services"
	"lineup/internal/validate"
)

// Committer is the final hand-off: it takes the subset of the schedule the
// user kept selected in review and emits a single all-or-nothing commit to
// the external store. Validation errors always hard-block a commit,
// regardless of how permissive the prepare step was.
type Committer struct {
	sink      Sink
	drafts    *draft.Store
	validator *validate.Validator
	logger    *slog.Logger
}

// NewCommitter constructs a committer.
func NewCommitter(sink Sink, drafts *draft.Store, validator *validate.Validator, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Committer{
		sink:      sink,
		drafts:    drafts,
		validator: validator,
		logger:    logger.With(slog.String(logging.FieldComponent, "publish")),
	}
}

// Commit validates the selection, sends it to the sink, and clears the
// project's draft on success. On any failure the selection stays staged and
// retryable; the error distinguishes "nothing was scheduled" from "some
// items were scheduled" so a retry cannot double-publish.
func (c *Committer) Commit(ctx context.Context, projectID string, selected []schedule.ScheduledContent) (*Receipt, error) {
	if len(selected) == 0 {
		return nil, services.Wrap(services.ErrValidation, "publish", "commit",
			"nothing selected for publishing", nil)
	}

	var invalid []string
	for _, entry := range selected {
		if entry.Item == nil {
			return nil, services.Wrap(services.ErrValidation, "publish", "commit",
				"scheduled entry has no item", nil)
		}
		ok, err := c.validator.Apply(entry.Item)
		if err != nil {
			return nil, err
		}
		if !ok {
			invalid = append(invalid, entry.Item.ID)
		}
	}
	if len(invalid) > 0 {
		return nil, services.Wrap(services.ErrValidation, "publish", "commit",
			fmt.Sprintf("items failed validation: %s", strings.Join(invalid, ", ")), nil)
	}

	receipt, err := c.sink.Commit(ctx, selected)
	if err != nil {
		// Transport failure: the sink never acknowledged anything, so
		// nothing was scheduled and the full set is retryable.
		return nil, services.Wrap(services.ErrCommit, "publish", "commit",
			"publish store rejected the request; nothing was scheduled", err)
	}

	if !receipt.Success {
		if len(receipt.FailedIDs) > 0 && len(receipt.FailedIDs) < len(selected) {
			// Partial acceptance: surface exactly which items failed so
			// the caller retries only those, not the already-scheduled
			// remainder.
			return receipt, services.Wrap(services.ErrCommit, "publish", "commit",
				fmt.Sprintf("publish store scheduled %d of %d items; failed: %s",
					len(selected)-len(receipt.FailedIDs), len(selected),
					strings.Join(receipt.FailedIDs, ", ")), nil)
		}
		return receipt, services.Wrap(services.ErrCommit, "publish", "commit",
			"publish store declined the commit; nothing was scheduled", nil)
	}

	if err := c.drafts.Clear(ctx, projectID); err != nil {
		// The commit stands; a stale draft only means recovery would
		// offer already-published content once.
		c.logger.Warn("commit succeeded but draft cleanup failed",
			slog.String(logging.FieldProjectID, projectID),
			slog.String("error", err.Error()))
	}

	c.logger.Info("schedule committed",
		slog.String(logging.FieldProjectID, projectID),
		slog.Int("items", len(selected)))
	return receipt, nil
}
