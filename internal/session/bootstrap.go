package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"usemy/internal/auth"
	"usemy/internal/platform/config"
	"usemy/internal/platform/metrics"
)

// Source is the slice of the auth provider the bootstrap consumes: a pull
// query for the current session and a push stream of changes that fires once
// eagerly after subscribing.
type Source interface {
	GetSession(ctx context.Context) (*auth.Session, error)
	Subscribe(ctx context.Context) (<-chan auth.Change, func())
}

// Bootstrap resolves the initial bootstrap state by racing the push stream
// against a bounded pull query, with a hard safety timeout so loading can
// never stay true indefinitely.
//
// The push subscription is the more reliable signal but can be slow on cold
// start; the pull is faster but occasionally hangs network-side. Whichever
// answers first ends loading; the loser's result is still accepted as an
// update. Both sources hanging hands the decision to the safety timer, which
// resolves with no session.
type Bootstrap struct {
	source    Source
	state     *State
	onSession func(ctx context.Context, sess *auth.Session)
	log       *zap.Logger
	metrics   *metrics.Metrics

	pullTimeout   time.Duration
	safetyTimeout time.Duration
}

// New builds a bootstrap. onSession is invoked in its own goroutine whenever
// a non-nil session lands, from either source at any time; wire it to the
// profile guard. It must never block the loading transition.
func New(source Source, state *State, onSession func(ctx context.Context, sess *auth.Session), log *zap.Logger, m *metrics.Metrics, cfg config.BootstrapConfig) *Bootstrap {
	pull := cfg.PullTimeout
	if pull <= 0 {
		pull = 2 * time.Second
	}
	safety := cfg.SafetyTimeout
	if safety <= 0 {
		safety = 3 * time.Second
	}
	if onSession == nil {
		onSession = func(context.Context, *auth.Session) {}
	}
	return &Bootstrap{
		source:        source,
		state:         state,
		onSession:     onSession,
		log:           log,
		metrics:       m,
		pullTimeout:   pull,
		safetyTimeout: safety,
	}
}

type pullResult struct {
	session *auth.Session
	err     error
}

// Start launches the protocol and returns a stop function that tears down
// the subscription and waits for the event loop to exit.
func (b *Bootstrap) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	changes, unsubscribe := b.source.Subscribe(ctx)

	pull := make(chan pullResult, 1)
	go func() {
		pctx, pcancel := context.WithTimeout(ctx, b.pullTimeout)
		defer pcancel()
		sess, err := b.source.GetSession(pctx)
		pull <- pullResult{session: sess, err: err}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.loop(ctx, changes, pull)
	}()

	return func() {
		cancel()
		unsubscribe()
		<-done
	}
}

func (b *Bootstrap) loop(ctx context.Context, changes <-chan auth.Change, pull <-chan pullResult) {
	tracer := otel.Tracer("usemy/session")
	_, span := tracer.Start(ctx, "session.bootstrap")
	spanOpen := true
	endSpan := func(source string) {
		if spanOpen {
			span.SetAttributes(attribute.String("bootstrap.resolved_by", source))
			span.End()
			spanOpen = false
		}
	}
	defer endSpan("stopped")

	safety := time.NewTimer(b.safetyTimeout)
	defer safety.Stop()

	for {
		select {
		case res := <-pull:
			pull = nil
			if res.err != nil {
				// No result from this source; the push stream or the
				// safety timer still bound the loading state.
				b.log.Debug("session pull produced no result", zap.Error(res.err))
				continue
			}
			b.apply(ctx, res.session, metrics.SourcePull, safety, endSpan)

		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			b.apply(ctx, change.Session, metrics.SourcePush, safety, endSpan)

		case <-safety.C:
			if b.state.ResolveTimeout() {
				b.metrics.BootstrapResolutions.WithLabelValues(metrics.SourceTimeout).Inc()
				b.log.Warn("bootstrap safety timeout, resolving with no session",
					zap.Duration("timeout", b.safetyTimeout))
				endSpan(metrics.SourceTimeout)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (b *Bootstrap) apply(ctx context.Context, sess *auth.Session, source string, safety *time.Timer, endSpan func(string)) {
	first := b.state.Resolve(sess)
	if first {
		safety.Stop()
		b.metrics.BootstrapResolutions.WithLabelValues(source).Inc()
		b.log.Info("bootstrap resolved",
			zap.String("source", source),
			zap.Bool("has_session", sess != nil))
		endSpan(source)
	}
	if sess != nil {
		// Profile loading never blocks the "is there a session" decision.
		go b.onSession(ctx, sess)
	}
}
