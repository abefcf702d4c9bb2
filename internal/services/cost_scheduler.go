// internal/services/cost_scheduler.go
package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CostReconciler recomputes every cooperative's average cost.
type CostReconciler interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// CostScheduler periodically repairs average costs left stale by failed or
// interleaved recomputations.
type CostScheduler struct {
	cron       *cron.Cron
	reconciler CostReconciler
	schedule   string
}

func NewCostScheduler(reconciler CostReconciler, schedule string) *CostScheduler {
	return &CostScheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		schedule:   schedule,
	}
}

// Start registers the reconcile job and starts the scheduler. An empty
// schedule disables it.
func (s *CostScheduler) Start() error {
	if s.schedule == "" {
		logrus.Info("Average cost reconciler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("invalid average cost schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()

	logrus.WithField("schedule", s.schedule).Info("Average cost reconciler started")
	return nil
}

// Stop waits for a running job to finish.
func (s *CostScheduler) Stop() {
	<-s.cron.Stop().Done()
	logrus.Info("Average cost reconciler stopped")
}

func (s *CostScheduler) run() {
	updated, err := s.reconciler.RecomputeAll(context.Background())
	if err != nil {
		logrus.WithError(err).Error("Average cost reconcile failed")
		return
	}
	logrus.WithField("updated", updated).Info("Average costs reconciled")
}
