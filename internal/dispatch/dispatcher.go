package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/time/rate"

	"stall/internal/jobrequest"
	"stall/internal/keys"
	"stall/internal/listing"
	"stall/internal/logger"
	apperrors "stall/pkg/errors"
	"stall/pkg/logging"
	"stall/pkg/metrics"
)

// Publisher sends a signed event out to the relay set.
type Publisher interface {
	Publish(ctx context.Context, event nostr.Event) error
}

// Fetcher looks an event up by id across the relay set.
type Fetcher interface {
	FetchByID(ctx context.Context, id string) (*nostr.Event, error)
}

// Dispatcher turns one job-request event into result or feedback events.
// Inputs within a request are isolated: one failing input produces its own
// feedback without aborting the rest.
type Dispatcher struct {
	profile         *keys.Profile
	publisher       Publisher
	fetcher         Fetcher
	cache           listing.Cache
	feedbackLimiter *rate.Limiter
	logger          logger.Logger
}

func NewDispatcher(
	profile *keys.Profile,
	publisher Publisher,
	fetcher Fetcher,
	cache listing.Cache,
	feedbackRPS float64,
	feedbackBurst int,
	log logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		profile:         profile,
		publisher:       publisher,
		fetcher:         fetcher,
		cache:           cache,
		feedbackLimiter: rate.NewLimiter(rate.Limit(feedbackRPS), feedbackBurst),
		logger:          log,
	}
}

// Dispatch processes one job-request event end to end. Errors are reported
// to the submitter as feedback events and never returned; a request that
// cannot even be parsed still gets exactly one feedback.
func (d *Dispatcher) Dispatch(ctx context.Context, event *nostr.Event) {
	ctx = logging.WithJobID(ctx, uuid.NewString())
	ctx = logging.WithEventID(ctx, event.ID)

	req, err := jobrequest.Parse(event, d.profile)
	if err != nil {
		d.logger.WarnwCtx(ctx, "Job request rejected",
			"error", err,
		)
		metrics.DispatchJobsTotal.WithLabelValues("none", "rejected").Inc()
		d.publishFeedback(ctx, event, err)
		return
	}

	if len(req.Inputs) == 0 {
		d.logger.DebugwCtx(ctx, "Job request carries no inputs")
		metrics.DispatchJobsTotal.WithLabelValues("none", "empty").Inc()
		return
	}

	for _, input := range req.Inputs {
		d.dispatchInput(ctx, event, input)
	}
}

func (d *Dispatcher) dispatchInput(ctx context.Context, event *nostr.Event, input jobrequest.Input) {
	marker := string(input.Marker)
	if marker == "" {
		marker = "none"
	}

	started := time.Now()
	err := d.handleInput(ctx, event, input)
	metrics.ObserveDispatchDuration(time.Since(started), marker)

	if err != nil {
		metrics.DispatchJobsTotal.WithLabelValues(marker, "failure").Inc()
		d.logger.WarnwCtx(ctx, "Job input failed",
			"marker", marker,
			"error", err,
		)
		d.publishFeedback(ctx, event, err)
		return
	}

	metrics.DispatchJobsTotal.WithLabelValues(marker, "success").Inc()
}

func (d *Dispatcher) handleInput(ctx context.Context, event *nostr.Event, input jobrequest.Input) error {
	switch input.Marker {
	case jobrequest.MarkerOrder:
		return d.handleOrder(ctx, event, input)
	case jobrequest.MarkerQuote:
		return d.handleQuote(ctx, event, input)
	case jobrequest.MarkerPreview:
		return d.handlePreview(ctx, event, input)
	default:
		return apperrors.ErrInvalidInputMarker.WithMessage("input carries no marker")
	}
}

// publishFeedback reports a failure back to the submitter. Publishes are
// rate limited and publish failures are swallowed; feedback is best effort
// and must never take the agent down with it.
func (d *Dispatcher) publishFeedback(ctx context.Context, event *nostr.Event, cause error) {
	if !d.feedbackLimiter.Allow() {
		d.logger.WarnwCtx(ctx, "Feedback suppressed by rate limit",
			"status", apperrors.FeedbackStatus(cause),
		)
		return
	}

	feedback, err := buildFeedbackEvent(d.profile, event, cause)
	if err != nil {
		d.logger.ErrorwCtx(ctx, "Feedback event could not be built",
			"error", err,
		)
		return
	}

	if err := d.publisher.Publish(ctx, feedback); err != nil {
		d.logger.WarnwCtx(ctx, "Feedback publish failed",
			"error", err,
		)
	}
}
