package intake

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/sync/semaphore"

	"stall/internal/constants"
	"stall/internal/logger"
	"stall/pkg/metrics"
)

// Dispatcher handles one job-request event. Implementations own their error
// reporting; the loop only routes.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *nostr.Event)
}

// Subscriber opens a merged relay subscription for the filter. The channel
// closes when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, filter nostr.Filter) <-chan *nostr.Event
}

// Loop consumes the job-request stream and hands each event to the
// dispatcher on its own goroutine, bounded by a weighted semaphore so a
// burst of requests cannot spawn unbounded work.
type Loop struct {
	subscriber Subscriber
	dispatcher Dispatcher
	sem        *semaphore.Weighted
	logger     logger.Logger
}

func NewLoop(subscriber Subscriber, dispatcher Dispatcher, maxConcurrent int64, log logger.Logger) *Loop {
	if maxConcurrent <= 0 {
		maxConcurrent = constants.DefaultMaxConcurrentDispatch
	}
	return &Loop{
		subscriber: subscriber,
		dispatcher: dispatcher,
		sem:        semaphore.NewWeighted(maxConcurrent),
		logger:     log,
	}
}

// Run blocks until ctx is done. Only events created after startup are
// consumed; replaying the relay's backlog of old requests would re-answer
// orders that were already served.
func (l *Loop) Run(ctx context.Context) error {
	since := nostr.Now()
	filter := nostr.Filter{
		Kinds: []int{constants.KindJobRequest},
		Since: &since,
	}

	events := l.subscriber.Subscribe(ctx, filter)
	l.logger.InfowCtx(ctx, "Intake loop started",
		"kind", constants.KindJobRequest,
	)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			l.consume(ctx, ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) consume(ctx context.Context, event *nostr.Event) {
	// relays are not trusted to honor the filter
	if event.Kind != constants.KindJobRequest {
		metrics.IntakeEventsTotal.WithLabelValues("skipped").Inc()
		return
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return
	}

	metrics.IntakeEventsTotal.WithLabelValues("accepted").Inc()

	// accepted dispatches run to completion even when the loop is shutting
	// down, so a half-processed order is never abandoned
	dispatchCtx := context.WithoutCancel(ctx)
	go func() {
		defer l.sem.Release(1)
		l.dispatcher.Dispatch(dispatchCtx, event)
	}()
}
