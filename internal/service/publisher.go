package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/medialab/equipment-booking/internal/metrics"
	"github.com/medialab/equipment-booking/internal/queue"
)

//go:generate mockgen -source ./publisher.go -destination=./mocks/publisher.go -package=mocks

// Publisher delivers domain events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

const publishTimeout = 2 * time.Second

// publishAll sends events after a transaction has committed.  Failures
// are logged and counted but never returned: the database is the source
// of truth and a lost event must not fail the request that caused it.
func publishAll(ctx context.Context, p Publisher, log *zap.Logger, events ...queue.Event) {
	if p == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, ev := range events {
		if err := p.Publish(ctx, ev); err != nil {
			metrics.OperationErrorsTotal.WithLabelValues("publish").Inc()
			log.Warn("event publish failed", zap.String("type", ev.Type), zap.Error(err))
		}
	}
}
