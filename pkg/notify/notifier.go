// Package notify reports interaction check outcomes to an operations channel.
// Delivery is best-effort: notification failures are logged and never bubble
// up into the pipeline that triggered them.
package notify

import (
	"context"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
)

// CheckNotifier receives the terminal outcome of an interaction check run.
type CheckNotifier interface {
	// CheckCompleted reports a run that finished, whether or not any
	// interactions were found.
	CheckCompleted(ctx context.Context, metrics *models.InteractionCheckMetrics)

	// CheckFailed reports a failed run. attemptedCount is the number of
	// candidate pairs the run was checking when it failed; zero when the run
	// failed before the candidates were known.
	CheckFailed(ctx context.Context, medicationName string, checkErr error, attemptedCount int)

	// CheckSkipped reports a run that ended without calling the classifier.
	CheckSkipped(ctx context.Context, medicationName string, reason string)
}

// NoopNotifier discards all notifications. Used when monitoring is disabled.
type NoopNotifier struct{}

var _ CheckNotifier = (*NoopNotifier)(nil)

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) CheckCompleted(ctx context.Context, metrics *models.InteractionCheckMetrics) {
}

func (n *NoopNotifier) CheckFailed(ctx context.Context, medicationName string, checkErr error, attemptedCount int) {
}

func (n *NoopNotifier) CheckSkipped(ctx context.Context, medicationName string, reason string) {
}
