package reconcile

import (
	"context"
	"sync"

	"loot-tracker/internal/auth"
	"loot-tracker/internal/constants"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Reconciler interface {
	Name() string
	Reconcile(ctx context.Context, uid string) error
}

type Engine struct {
	reconcilers []Reconciler
	logger      zerolog.Logger
	pending     sync.WaitGroup
}

func NewEngine(logger zerolog.Logger, reconcilers ...Reconciler) *Engine {
	return &Engine{
		reconcilers: reconcilers,
		logger:      logger.With().Str("component", "reconcile").Logger(),
	}
}

// Attach starts a background sync every time a user becomes present. The
// returned function detaches the engine.
func (e *Engine) Attach(session *auth.Session) func() {
	return session.Subscribe(func(prev, next *auth.Identity) {
		if next == nil {
			return
		}
		if prev != nil && prev.UserID == next.UserID {
			return
		}
		e.start(next.UserID)
	})
}

func (e *Engine) start(uid string) {
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), constants.SyncTimeout)
		defer cancel()
		if err := e.SyncNow(ctx, uid); err != nil {
			e.logger.Error().Err(err).Str("uid", uid).Msg("background sync failed")
		}
	}()
}

// SyncNow reconciles every record set for uid in parallel and waits. A
// failing set does not stop the others.
func (e *Engine) SyncNow(ctx context.Context, uid string) error {
	e.logger.Info().Str("uid", uid).Int("collections", len(e.reconcilers)).Msg("sync started")

	g := new(errgroup.Group)
	for _, r := range e.reconcilers {
		g.Go(func() error {
			if err := r.Reconcile(ctx, uid); err != nil {
				e.logger.Warn().Err(err).Str("collection", r.Name()).Str("uid", uid).Msg("reconcile failed")
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.logger.Info().Str("uid", uid).Msg("sync completed")
	return nil
}

// Wait blocks until background syncs finish or ctx ends.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
