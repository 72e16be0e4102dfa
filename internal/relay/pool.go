package relay

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"stall/internal/constants"
	"stall/internal/logger"
	"stall/pkg/circuitbreaker"
	apperrors "stall/pkg/errors"
	"stall/pkg/metrics"
	"stall/pkg/retry"
)

// seenLimit bounds the fan-in dedup set. Once exceeded the set is reset;
// a rare duplicate delivery after a reset is harmless because dispatch is
// keyed by event id downstream.
const seenLimit = 8192

// Pool maintains connections to a fixed set of relays and exposes the three
// operations the agent needs: a supervised merged subscription, a by-id
// lookup and a fan-out publish.
type Pool struct {
	urls    []string
	policy  retry.Policy
	breaker *circuitbreaker.Wrapper
	logger  logger.Logger

	mu     sync.Mutex
	relays map[string]*nostr.Relay
	closed bool
}

func NewPool(urls []string, policy retry.Policy, log logger.Logger) *Pool {
	return &Pool{
		urls:    urls,
		policy:  policy,
		breaker: circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("relay-fetch")),
		logger:  log,
		relays:  make(map[string]*nostr.Relay),
	}
}

// Connect dials every configured relay. At least one connection must come up;
// relays that fail here are retried lazily by ensure.
func (p *Pool) Connect(ctx context.Context) error {
	var connected int
	for _, url := range p.urls {
		if _, err := p.ensure(ctx, url); err != nil {
			p.logger.WarnwCtx(ctx, "Relay connection failed, will retry on use",
				"relay", url,
				"error", err,
			)
			continue
		}
		connected++
	}

	if connected == 0 {
		return apperrors.ErrFetchFailed.WithMessage("no relay reachable out of %d configured", len(p.urls))
	}

	p.logger.InfowCtx(ctx, "Relay pool connected",
		"connected", connected,
		"configured", len(p.urls),
	)
	return nil
}

// ensure returns a live connection for url, dialing if needed.
func (p *Pool) ensure(ctx context.Context, url string) (*nostr.Relay, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, apperrors.ErrInternal.WithMessage("relay pool is closed")
	}
	if r, ok := p.relays[url]; ok && r.IsConnected() {
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, constants.ConnectTimeout)
	defer cancel()

	r, err := nostr.RelayConnect(dialCtx, url)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		r.Close()
		return nil, apperrors.ErrInternal.WithMessage("relay pool is closed")
	}
	p.relays[url] = r
	p.mu.Unlock()

	p.updateConnectedGauge()
	return r, nil
}

func (p *Pool) drop(url string) {
	p.mu.Lock()
	if r, ok := p.relays[url]; ok {
		delete(p.relays, url)
		r.Close()
	}
	p.mu.Unlock()
	p.updateConnectedGauge()
}

// Connected reports how many relays currently hold a live connection.
func (p *Pool) Connected() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var n int
	for _, r := range p.relays {
		if r.IsConnected() {
			n++
		}
	}
	return n
}

func (p *Pool) updateConnectedGauge() {
	metrics.RelayConnectedGauge.Set(float64(p.Connected()))
}

// Publish sends the event to every configured relay. It succeeds when at
// least one relay accepts the event.
func (p *Pool) Publish(ctx context.Context, event nostr.Event) error {
	kind := strconv.Itoa(event.Kind)

	var published int
	var lastErr error
	for _, url := range p.urls {
		r, err := p.ensure(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		pubCtx, cancel := context.WithTimeout(ctx, constants.PublishTimeout)
		err = r.Publish(pubCtx, event)
		cancel()
		if err != nil {
			lastErr = err
			p.drop(url)
			p.logger.WarnwCtx(ctx, "Event publish rejected",
				"relay", url,
				"kind", event.Kind,
				"error", err,
			)
			continue
		}
		published++
	}

	if published == 0 {
		metrics.PublishTotal.WithLabelValues(kind, "failure").Inc()
		return apperrors.ErrInternal.
			WithMessage("event %s was not accepted by any relay", event.ID).
			WithCause(lastErr)
	}

	metrics.PublishTotal.WithLabelValues(kind, "success").Inc()
	return nil
}

// FetchByID looks an event up by id across the pool, first match wins. The
// lookup runs behind a circuit breaker so a dead relay set cannot stall
// every order on fetch timeouts.
func (p *Pool) FetchByID(ctx context.Context, id string) (*nostr.Event, error) {
	result, err := p.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		return p.fetchByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*nostr.Event), nil
}

func (p *Pool) fetchByID(ctx context.Context, id string) (*nostr.Event, error) {
	filter := nostr.Filter{IDs: []string{id}, Limit: 1}

	var lastErr error
	for _, url := range p.urls {
		r, err := p.ensure(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, constants.FetchTimeout)
		events, err := r.QuerySync(fetchCtx, filter)
		cancel()
		if err != nil {
			lastErr = err
			p.drop(url)
			continue
		}

		if len(events) > 0 {
			return events[0], nil
		}
	}

	if lastErr != nil {
		return nil, apperrors.ErrFetchFailed.
			WithMessage("lookup of event %s failed", id).
			WithCause(lastErr)
	}
	return nil, apperrors.ErrMissingReference.WithMessage("event %s not found on any relay", id)
}

// Subscribe opens the filter on every configured relay and merges the
// streams into one channel, deduplicated by event id. Each relay runs under
// its own supervisor that resubscribes with exponential backoff after a
// transport failure. The channel closes when ctx is done.
func (p *Pool) Subscribe(ctx context.Context, filter nostr.Filter) <-chan *nostr.Event {
	merged := make(chan *nostr.Event)

	var wg sync.WaitGroup
	for _, url := range p.urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			p.superviseSubscription(ctx, url, filter, merged)
		}(url)
	}

	out := make(chan *nostr.Event)
	go func() {
		defer close(out)
		seen := make(map[string]struct{}, 256)
		for ev := range merged {
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			if len(seen) >= seenLimit {
				seen = make(map[string]struct{}, 256)
			}
			seen[ev.ID] = struct{}{}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(merged)
	}()

	return out
}

// superviseSubscription keeps one relay's subscription alive until ctx is
// done. Backoff resets after a subscription that survived long enough to be
// considered healthy.
func (p *Pool) superviseSubscription(ctx context.Context, url string, filter nostr.Filter, merged chan<- *nostr.Event) {
	bo := retry.ExponentialBackoff(p.policy.InitialInterval, p.policy.MaxInterval, p.policy.Multiplier, 0)

	for {
		started := time.Now()
		err := p.runSubscription(ctx, url, filter, merged)
		if ctx.Err() != nil {
			return
		}

		p.drop(url)
		metrics.RelayResubscribesTotal.Inc()

		if time.Since(started) > time.Minute {
			bo.Reset()
		}
		delay := bo.NextBackOff()

		p.logger.WarnwCtx(ctx, "Subscription lost, resubscribing",
			"relay", url,
			"delay", delay.String(),
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) runSubscription(ctx context.Context, url string, filter nostr.Filter, merged chan<- *nostr.Event) error {
	r, err := p.ensure(ctx, url)
	if err != nil {
		return err
	}

	sub, err := r.Subscribe(ctx, nostr.Filters{filter})
	if err != nil {
		return err
	}
	defer sub.Unsub()

	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return apperrors.ErrInternal.WithMessage("subscription stream closed by relay %s", url)
			}
			select {
			case merged <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close tears down every connection. The pool cannot be reused afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	for url, r := range p.relays {
		r.Close()
		delete(p.relays, url)
	}
	p.mu.Unlock()
	p.updateConnectedGauge()
}
