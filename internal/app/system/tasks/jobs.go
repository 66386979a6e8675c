// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ContentPruneJobName identifies the revision pruning job.
const ContentPruneJobName = "content-revision-prune"

// RevisionPruner removes old content revisions, keeping the newest keep.
type RevisionPruner interface {
	PruneRevisions(ctx context.Context, keep int) (int, error)
}

// ContentPruneJob creates a job that deletes published revisions beyond the
// newest keep. The current revision always survives.
func ContentPruneJob(p RevisionPruner, keep int, logger *zap.Logger) Job {
	return Job{
		Name:     ContentPruneJobName,
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			removed, err := p.PruneRevisions(ctx, keep)
			if err != nil {
				return err
			}
			if removed > 0 {
				logger.Info("pruned content revisions",
					zap.Int("deleted", removed),
					zap.Int("kept", keep))
			}
			return nil
		},
	}
}
