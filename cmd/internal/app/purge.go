package app

import (
	"context"
	"time"
)

// tokenPurger is implemented by token stores that need a periodic sweep.
// Redis and in-memory stores expire entries on their own.
type tokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// purgeTokens deletes expired tokens every interval until ctx is done.
func purgeTokens(ctx context.Context, p tokenPurger, every time.Duration, now func() time.Time, log Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := p.PurgeExpired(ctx, now())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("tokens.purge.fail", "err", err)
			continue
		}
		if n > 0 {
			log.Info("tokens.purged", "count", n)
		}
	}
}

// startTokenPurge runs purgeTokens in the background when the token store
// needs it. The returned func stops the sweep and waits for it to exit.
func (a *App) startTokenPurge(ctx context.Context) (stop func()) {
	p, ok := a.stores.tokens.(tokenPurger)
	if !ok || a.cfg.TokenPurgeInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		purgeTokens(ctx, p, a.cfg.TokenPurgeInterval, time.Now, a.log)
	}()

	a.log.Info("tokens.purge.start", "every", a.cfg.TokenPurgeInterval)
	return func() {
		cancel()
		<-done
	}
}
